// Package description computes descriptors for detected keypoints.
//
// An Extractor turns an image and a keypoint slice into a
// feature.Descriptors set with exactly one row per keypoint, in keypoint
// order. Keypoints whose sampling window leaves the image are not dropped:
// they receive an all-zero row so the index alignment between keypoints and
// descriptors survives every stage of the pipeline.
//
// # Strategies
//
//   - BRIEF: 256 intensity tests (32 bytes) in a 48x48 patch of a smoothed image
//   - ORB: BRIEF tests rotated by the keypoint orientation in a 31x31 patch (32 bytes)
//   - SIFT: 4x4x8 gradient orientation histogram (128 float32 values)
//
// With the gocv build tag, BRISK (64 bytes) and AKAZE (61 bytes) are
// registered as well.
//
// Binary strategies sample a fixed pseudo-random test pattern generated from
// a constant seed, so descriptors are reproducible across runs.
package description
