package ports

import (
	"context"
	"image"

	"gridcast/internal/core/domain"
)

// SessionService is the single owner of the active-stream set. Every mutation
// is atomic: invariants are never observable as violated, and each successful
// mutation triggers persistence and an on-change notification.
type SessionService interface {
	AddStream(ctx context.Context, stream *domain.Stream) (*domain.StreamState, error)
	RemoveStream(ctx context.Context, id domain.StreamID) error
	UpdateStream(ctx context.Context, id domain.StreamID, update domain.StreamUpdate) error
	SetVolume(ctx context.Context, id domain.StreamID, volume int) error
	ToggleMute(ctx context.Context, id domain.StreamID) error
	SetQuality(ctx context.Context, id domain.StreamID, quality domain.Quality) error
	Reorder(ctx context.Context, fromIndex, toIndex int) error
	SetGridLayout(ctx context.Context, mode domain.LayoutMode) error
	SetCustomLayout(ctx context.Context, rows, cols int) error
	ClearAll(ctx context.Context) error

	// Snapshot returns a deep copy of the current session; readers never see
	// partially applied mutations.
	Snapshot() *domain.Session

	// Subscribe registers an observer called after each successful mutation.
	Subscribe(fn func(domain.ChangeEvent))
}

type RecorderService interface {
	Start(ctx context.Context, settings domain.RecordingSettings) (*domain.RecordingSegment, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) (*domain.RecordingSegment, error)

	// Active returns the in-flight segment, or nil when idle.
	Active() *domain.RecordingSegment

	List(ctx context.Context) ([]*domain.RecordingSegment, error)
	Delete(ctx context.Context, id domain.SegmentID) error
}

// FrameSource yields the current visual frame for a stream. The boolean is
// false when no frame is available this tick; callers skip the stream without
// error.
type FrameSource interface {
	Frame(ctx context.Context, id domain.StreamID) (image.Image, bool)
}

// CaptureSource yields encoded output chunks for the recorder. A nil chunk
// with nil error means nothing was produced since the last read.
type CaptureSource interface {
	ReadChunk(ctx context.Context) ([]byte, error)
}
