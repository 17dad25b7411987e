package ports

import (
	"context"

	"gridcast/internal/core/domain"
)

// SessionRepository persists the whole session under a fixed namespace key.
// Load must never fail on corrupt persisted data: implementations discard the
// payload and return an empty session instead.
type SessionRepository interface {
	Save(ctx context.Context, session *domain.Session) error
	Load(ctx context.Context) (*domain.Session, error)
	Clear(ctx context.Context) error
}

type SegmentRepository interface {
	Save(ctx context.Context, segment *domain.RecordingSegment) error
	GetByID(ctx context.Context, id domain.SegmentID) (*domain.RecordingSegment, error)
	List(ctx context.Context) ([]*domain.RecordingSegment, error)
	Delete(ctx context.Context, id domain.SegmentID) error
}

// StorageQuota reports estimated available bytes for new recordings. Advisory
// only; a failing quota check blocks new starts, never in-flight segments.
type StorageQuota interface {
	Available(ctx context.Context) (int64, error)
}

// ChunkSink accumulates raw output chunks for an in-flight segment and turns
// them into one deliverable on finalize. A failed finalize must leave the
// accumulated chunks on disk for diagnostics.
type ChunkSink interface {
	Begin(id domain.SegmentID) error
	Append(id domain.SegmentID, data []byte) (int64, error)
	Finalize(id domain.SegmentID, name string) (path string, size int64, err error)
	Remove(id domain.SegmentID) error
}
