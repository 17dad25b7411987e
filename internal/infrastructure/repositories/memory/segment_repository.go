package memory

import (
	"context"
	"sort"
	"sync"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"
)

type MemorySegmentRepository struct {
	segments map[domain.SegmentID]*domain.RecordingSegment
	mu       sync.RWMutex
}

func NewMemorySegmentRepository() ports.SegmentRepository {
	return &MemorySegmentRepository{
		segments: make(map[domain.SegmentID]*domain.RecordingSegment),
	}
}

func (r *MemorySegmentRepository) Save(ctx context.Context, segment *domain.RecordingSegment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *segment
	r.segments[segment.ID] = &clone
	return nil
}

func (r *MemorySegmentRepository) GetByID(ctx context.Context, id domain.SegmentID) (*domain.RecordingSegment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	segment, exists := r.segments[id]
	if !exists {
		return nil, domain.ErrSegmentNotFound
	}

	clone := *segment
	return &clone, nil
}

func (r *MemorySegmentRepository) List(ctx context.Context) ([]*domain.RecordingSegment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	segments := make([]*domain.RecordingSegment, 0, len(r.segments))
	for _, segment := range r.segments {
		clone := *segment
		segments = append(segments, &clone)
	}

	sort.Slice(segments, func(i, j int) bool {
		return segments[i].StartTime.Before(segments[j].StartTime)
	})
	return segments, nil
}

func (r *MemorySegmentRepository) Delete(ctx context.Context, id domain.SegmentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.segments[id]; !exists {
		return domain.ErrSegmentNotFound
	}

	delete(r.segments, id)
	return nil
}
