// Package imaging provides grayscale image loading and the low-level pixel
// operations shared by the feature detectors and descriptor extractors.
//
// All pipeline stages work on *image.Gray. Files are decoded with
// github.com/disintegration/imaging and converted to 8-bit luminance once, at
// load time, so later stages never branch on the source color model.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Float planes are indexed plane[y][x] relative to the image bounds origin
//
// # Frame Sequences
//
// Sequence reads numbered frame files (for example KITTI's
// 0000000000.png ... 0000000009.png) in strictly increasing index order and
// reports ErrEndOfSequence once the last index has been delivered. A frame
// that cannot be decoded is reported as feature.ErrInvalidInput; the sequence
// still advances so callers can skip it.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Sequence is not; it is
// owned by a single pipeline.
//
// # Kernels
//
// Planes are [][]float64 with intensities in 0..255. Convolutions clamp (replicate)
// border pixels.
package imaging
