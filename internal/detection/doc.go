// Package detection provides keypoint detection strategies for grayscale images.
//
// Every strategy implements the Detector interface and is selected by name
// through a registry, so the pipeline can be configured from strings:
//
//	det, err := detection.New("SHITOMASI", detection.DefaultOptions())
//	kps, err := det.Detect(img)
//
// # Strategies
//
// The pure-Go strategies are always available:
//
//   - SHITOMASI: minimum eigenvalue of the structure tensor ("good features to track")
//   - HARRIS: Harris corner response with overlap-based non-maximum suppression
//   - FAST: FAST-9/16 segment test with 3x3 non-maximum suppression
//   - ORB: FAST corners ranked by Harris response, with intensity-centroid orientation
//   - SIFT: difference-of-Gaussians extrema with dominant gradient orientation
//
// Building with the gocv tag registers BRISK and AKAZE, which delegate to
// OpenCV through gocv.io/x/gocv. Without the tag those names are unsupported.
//
// # Coordinate System
//
// Keypoint coordinates are in pixels of the input image:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Angles are degrees in [0, 360), measured from the +X axis towards +Y.
// Strategies that do not compute an orientation report feature.NoAngle.
//
// # Errors
//
// Unknown strategy names fail with feature.ErrUnsupportedStrategy before any
// image is read. A nil or empty image fails with feature.ErrInvalidInput. An
// image without salient structure yields an empty, non-nil slice.
//
// # Determinism
//
// Detection is deterministic for a fixed image and configuration. Ties in
// non-maximum suppression are broken in raster order.
package detection
