// Package tracking runs the frame-pair tracking pipeline.
//
// For every incoming image the Pipeline detects keypoints, restricts them to
// the region of interest, optionally keeps only the strongest ones, computes
// size statistics, describes the survivors and matches them against the
// newest frame in a FrameBuffer before pushing the new frame.
//
// # Frame lifecycle
//
// Stage outputs are collected by a builder and a Frame is only created once
// detection and description succeeded. A failure in those stages never
// reaches the buffer. Matching failures concern the frame pair only: the
// frame is committed without matches so the next frame can still be matched
// against it.
//
// # Buffer
//
// FrameBuffer is a fixed-capacity ring. With the default capacity of 2 a
// sequence F0, F1, F2 is matched exactly twice, F0 against F1 and then F1
// against F2, and F0 has been evicted by the time F2 is pushed.
//
// # Errors
//
// Errors carry their context in *StageError (frame index, stage and
// strategy) and wrap the feature sentinels, so callers classify them with
// errors.Is:
//
//   - feature.ErrUnsupportedStrategy: misconfiguration, returned by New
//   - feature.ErrInvalidInput: the frame is skipped
//   - feature.ErrIncompatibleDescriptor, feature.ErrEmptyInput during
//     matching: the pair is skipped, the frame is kept
package tracking
