package domain

import "errors"

var (
	ErrStreamNotFound    = errors.New("stream not found")
	ErrCapacityExceeded  = errors.New("session capacity exceeded")
	ErrIndexOutOfRange   = errors.New("reorder index out of range")
	ErrNoActiveStreams   = errors.New("no active streams")
	ErrSourceUnavailable = errors.New("capture source unavailable")
	ErrStorageExceeded   = errors.New("storage quota exceeded")
	ErrRecorderBusy      = errors.New("recording already in progress")
	ErrInvalidState      = errors.New("operation invalid in current state")
	ErrSegmentNotFound   = errors.New("segment not found")
	ErrInvalidArgument   = errors.New("invalid argument")
)
