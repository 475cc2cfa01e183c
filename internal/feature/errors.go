package feature

import "errors"

var (
	// ErrUnsupportedStrategy is returned when a detector, descriptor or matcher
	// name is not registered. It indicates a misconfiguration and is never retried.
	ErrUnsupportedStrategy = errors.New("unsupported strategy")

	// ErrInvalidInput is returned for unreadable, empty or otherwise unusable
	// input such as a nil image or mismatched keypoint/descriptor lengths.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIncompatibleDescriptor is returned when two descriptor sets cannot be
	// compared: differing numeric types, differing row sizes, or a metric that
	// does not fit the descriptor type.
	ErrIncompatibleDescriptor = errors.New("incompatible descriptor")

	// ErrEmptyInput is returned when an operation needs at least one keypoint or
	// descriptor and got none.
	ErrEmptyInput = errors.New("empty input")
)
