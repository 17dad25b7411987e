package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"
	"gridcast/pkg/scheduler"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// recorderService drives the per-segment state machine
// recording -> processing -> completed, with an error edge to failed. One
// segment is in flight at a time; the duration/auto-split checks run on a
// periodic task that shares the service mutex with Stop, so a split boundary
// and a manual stop can never finalize the same segment twice.
type recorderService struct {
	session  ports.SessionService
	capture  ports.CaptureSource
	sink     ports.ChunkSink
	segments ports.SegmentRepository
	quota    ports.StorageQuota
	logger   *zap.SugaredLogger
	notify   func(domain.ChangeEvent)
	now      func() time.Time

	task *scheduler.Task

	mu         sync.Mutex
	active     *domain.RecordingSegment
	settings   domain.RecordingSettings
	paused     bool
	finalizing bool
}

func NewRecorderService(
	session ports.SessionService,
	capture ports.CaptureSource,
	sink ports.ChunkSink,
	segments ports.SegmentRepository,
	quota ports.StorageQuota,
	tickInterval time.Duration,
	notify func(domain.ChangeEvent),
	logger *zap.SugaredLogger,
) ports.RecorderService {
	if notify == nil {
		notify = func(domain.ChangeEvent) {}
	}
	s := &recorderService{
		session:  session,
		capture:  capture,
		sink:     sink,
		segments: segments,
		quota:    quota,
		logger:   logger,
		notify:   notify,
		now:      time.Now,
	}
	s.task = scheduler.New("recorder", tickInterval, s.tick, logger)
	return s
}

func (s *recorderService) Start(ctx context.Context, settings domain.RecordingSettings) (*domain.RecordingSegment, error) {
	s.mu.Lock()
	if s.active != nil {
		s.mu.Unlock()
		return nil, domain.ErrRecorderBusy
	}

	seg, err := s.startLocked(ctx, settings)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	result := cloneSegment(seg)
	s.mu.Unlock()

	s.task.Start(ctx)
	s.emit(domain.EventRecordingStart, seg.ID)
	return result, nil
}

// startLocked allocates and begins a new segment. Caller holds the mutex.
func (s *recorderService) startLocked(ctx context.Context, settings domain.RecordingSettings) (*domain.RecordingSegment, error) {
	snap := s.session.Snapshot()
	if len(snap.Streams) == 0 {
		return nil, domain.ErrNoActiveStreams
	}

	if s.quota != nil && settings.MinSegmentBytes > 0 {
		avail, err := s.quota.Available(ctx)
		if err != nil {
			// advisory collaborator; an unreachable quota never blocks starts
			s.logger.Warnw("storage quota check failed", "error", err)
		} else if avail < settings.MinSegmentBytes {
			return nil, fmt.Errorf("%w: %d bytes available, %d required", domain.ErrStorageExceeded, avail, settings.MinSegmentBytes)
		}
	}

	participants := make([]domain.StreamID, len(snap.Streams))
	for i, st := range snap.Streams {
		participants[i] = st.ID
	}

	seg := &domain.RecordingSegment{
		ID:                   domain.SegmentID(uuid.NewString()),
		Name:                 settings.Name,
		ParticipantStreamIDs: participants,
		StartTime:            s.now(),
		Status:               domain.SegmentRecording,
	}

	if err := s.sink.Begin(seg.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	s.persist(ctx, seg)
	s.active = seg
	s.settings = settings
	s.paused = false
	return seg, nil
}

func (s *recorderService) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.Status != domain.SegmentRecording || s.paused {
		return domain.ErrInvalidState
	}
	s.paused = true
	return nil
}

func (s *recorderService) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.Status != domain.SegmentRecording || !s.paused {
		return domain.ErrInvalidState
	}
	s.paused = false
	return nil
}

func (s *recorderService) Stop(ctx context.Context) (*domain.RecordingSegment, error) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return nil, domain.ErrInvalidState
	}
	seg := s.finalizeLocked(ctx, domain.EventRecordingStop)
	s.mu.Unlock()

	// Stopping the task outside the mutex: an in-flight tick blocked on the
	// mutex will observe active==nil and return before Stop completes.
	s.task.Stop()
	return seg, nil
}

func (s *recorderService) Active() *domain.RecordingSegment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	return cloneSegment(s.active)
}

func (s *recorderService) List(ctx context.Context) ([]*domain.RecordingSegment, error) {
	return s.segments.List(ctx)
}

func (s *recorderService) Delete(ctx context.Context, id domain.SegmentID) error {
	s.mu.Lock()
	if s.active != nil && s.active.ID == id {
		s.mu.Unlock()
		return domain.ErrInvalidState
	}
	s.mu.Unlock()

	if _, err := s.segments.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.sink.Remove(id); err != nil {
		return fmt.Errorf("failed to remove segment data: %w", err)
	}
	return s.segments.Delete(ctx, id)
}

// tick accumulates one capture chunk and applies the split and max-duration
// policies. The session snapshot taken here is authoritative for this tick
// only; streams removed mid-recording simply stop contributing.
func (s *recorderService) tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.finalizing {
		return
	}

	if !s.paused {
		chunk, err := s.capture.ReadChunk(ctx)
		if err != nil {
			s.logger.Warnw("capture read failed", "segment_id", s.active.ID, "error", err)
		} else if len(chunk) > 0 {
			n, err := s.sink.Append(s.active.ID, chunk)
			if err != nil {
				s.logger.Errorw("chunk append failed", "segment_id", s.active.ID, "error", err)
			} else {
				s.active.SizeBytes += n
			}
		}
	}

	elapsed := s.now().Sub(s.active.StartTime)
	s.active.DurationMs = elapsed.Milliseconds()

	if s.settings.MaxDuration > 0 && elapsed >= s.settings.MaxDuration {
		s.finalizeLocked(ctx, domain.EventRecordingStop)
		go s.task.Stop()
		return
	}

	if s.settings.AutoSplit && s.settings.SplitDuration > 0 && elapsed >= s.settings.SplitDuration {
		s.finalizeLocked(ctx, domain.EventRecordingSplit)
		if _, err := s.startLocked(ctx, s.settings); err != nil {
			s.logger.Errorw("failed to start follow-up segment after split", "error", err)
			go s.task.Stop()
		}
	}
}

// finalizeLocked walks the segment through processing into completed, or
// failed when finalization faults. Caller holds the mutex.
func (s *recorderService) finalizeLocked(ctx context.Context, event domain.EventType) *domain.RecordingSegment {
	seg := s.active
	s.finalizing = true

	seg.Status = domain.SegmentProcessing
	s.persist(ctx, seg)

	path, size, err := s.sink.Finalize(seg.ID, seg.Name)

	end := s.now()
	seg.EndTime = &end
	seg.DurationMs = end.Sub(seg.StartTime).Milliseconds()

	if err != nil {
		seg.Status = domain.SegmentFailed
		seg.Error = err.Error()
		s.logger.Errorw("segment finalization failed", "segment_id", seg.ID, "error", err)
		event = domain.EventRecordingFailed
	} else {
		seg.Status = domain.SegmentCompleted
		seg.FilePath = path
		if size > 0 {
			seg.SizeBytes = size
		}
	}
	s.persist(ctx, seg)

	s.active = nil
	s.finalizing = false
	s.paused = false

	s.emit(event, seg.ID)
	return cloneSegment(seg)
}

func (s *recorderService) persist(ctx context.Context, seg *domain.RecordingSegment) {
	if err := s.segments.Save(ctx, cloneSegment(seg)); err != nil {
		s.logger.Warnw("failed to persist segment", "segment_id", seg.ID, "error", err)
	}
}

func (s *recorderService) emit(event domain.EventType, id domain.SegmentID) {
	s.notify(domain.ChangeEvent{Type: event, SegmentID: id, Timestamp: s.now()})
}

func cloneSegment(seg *domain.RecordingSegment) *domain.RecordingSegment {
	c := *seg
	c.ParticipantStreamIDs = append([]domain.StreamID(nil), seg.ParticipantStreamIDs...)
	if seg.EndTime != nil {
		end := *seg.EndTime
		c.EndTime = &end
	}
	return &c
}
