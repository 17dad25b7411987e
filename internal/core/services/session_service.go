package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"
	"gridcast/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sessionService is the single source of truth for the active-stream set.
// All mutation goes through it under one mutex, so invariants are never
// observable as violated:
//  1. states has exactly one entry per stream (bijection)
//  2. at most one state has IsMuted=false (audio exclusivity)
//  3. positions form a dense 0-based permutation
//  4. stream count never exceeds the configured capacity
type sessionService struct {
	mu         sync.Mutex
	session    *domain.Session
	repo       ports.SessionRepository
	maxStreams int
	logger     *zap.SugaredLogger

	subMu       sync.RWMutex
	subscribers []func(domain.ChangeEvent)
}

// NewSessionService loads any persisted session from the repository and
// repairs it before use. Corrupt or unreachable persisted state degrades to
// an empty session rather than failing startup.
func NewSessionService(ctx context.Context, repo ports.SessionRepository, maxStreams int, logger *zap.SugaredLogger) ports.SessionService {
	session, err := repo.Load(ctx)
	if err != nil || session == nil {
		if err != nil {
			logger.Warnw("failed to load persisted session, starting empty", "error", err)
		}
		session = domain.NewSession()
	}

	s := &sessionService{
		session:    session,
		repo:       repo,
		maxStreams: maxStreams,
		logger:     logger,
	}
	s.repairLocked()
	return s
}

// repairLocked restores the invariant set over a freshly loaded session.
// Persisted data can be stale (missing states, duplicate positions, several
// unmuted streams); readers must never see it that way.
func (s *sessionService) repairLocked() {
	if s.session.States == nil {
		s.session.States = make(map[domain.StreamID]*domain.StreamState)
	}

	seen := make(map[domain.StreamID]bool, len(s.session.Streams))
	streams := s.session.Streams[:0]
	for _, st := range s.session.Streams {
		if st == nil || seen[st.ID] {
			continue
		}
		seen[st.ID] = true
		streams = append(streams, st)
		if _, ok := s.session.States[st.ID]; !ok {
			s.session.States[st.ID] = defaultState(len(streams) - 1)
		}
	}
	s.session.Streams = streams

	for id := range s.session.States {
		if !seen[id] {
			delete(s.session.States, id)
		}
	}

	s.compactPositionsLocked()

	audible := false
	for _, st := range s.session.Streams {
		state := s.session.States[st.ID]
		if !state.IsMuted {
			if audible {
				state.IsMuted = true
			}
			audible = true
		}
	}

	if !s.session.LayoutMode.Valid() {
		s.session.LayoutMode = domain.Layout2x2
	}
}

func defaultState(position int) *domain.StreamState {
	return &domain.StreamState{
		Volume:   100,
		IsMuted:  false,
		Quality:  domain.QualityAuto,
		Position: position,
	}
}

// compactPositionsLocked rewrites every state's position to match the stream
// sequence order as a dense 0-based permutation.
func (s *sessionService) compactPositionsLocked() {
	for i, st := range s.session.Streams {
		if state, ok := s.session.States[st.ID]; ok {
			state.Position = i
		}
	}
}

func (s *sessionService) AddStream(ctx context.Context, stream *domain.Stream) (*domain.StreamState, error) {
	if stream == nil {
		return nil, fmt.Errorf("%w: stream must not be nil", domain.ErrInvalidArgument)
	}
	if !stream.Platform.Valid() {
		return nil, fmt.Errorf("%w: unknown platform %q", domain.ErrInvalidArgument, stream.Platform)
	}
	if err := validation.ValidateChannelName(stream.ChannelName); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	if stream.SourceURL != "" {
		if err := validation.ValidateSourceURL(stream.SourceURL); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
	}
	if err := validation.ValidateTags(stream.Tags); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}

	s.mu.Lock()
	if len(s.session.Streams) >= s.maxStreams {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d/%d streams", domain.ErrCapacityExceeded, len(s.session.Streams), s.maxStreams)
	}

	if stream.ID == "" {
		stream.ID = domain.StreamID(uuid.NewString())
	}
	if stream.CreatedAt.IsZero() {
		stream.CreatedAt = time.Now()
	}

	state := defaultState(len(s.session.Streams))
	// Only the first stream of an empty set is audible; anything added next
	// to an existing set starts muted so at most one audible stream survives.
	state.IsMuted = len(s.session.Streams) > 0

	s.session.Streams = append(s.session.Streams, stream)
	s.session.States[stream.ID] = state

	snap := s.session.Clone()
	result := *state
	id := stream.ID
	s.mu.Unlock()

	s.afterMutation(ctx, snap, domain.ChangeEvent{Type: domain.EventStreamAdded, StreamID: id})
	return &result, nil
}

// RemoveStream is idempotent: an unknown id is a no-op, matching
// idempotent-delete semantics. Removing the audible stream leaves the set
// silent; nothing is promoted.
func (s *sessionService) RemoveStream(ctx context.Context, id domain.StreamID) error {
	s.mu.Lock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	s.session.Streams = append(s.session.Streams[:idx], s.session.Streams[idx+1:]...)
	delete(s.session.States, id)
	s.compactPositionsLocked()

	snap := s.session.Clone()
	s.mu.Unlock()

	s.afterMutation(ctx, snap, domain.ChangeEvent{Type: domain.EventStreamRemoved, StreamID: id})
	return nil
}

func (s *sessionService) UpdateStream(ctx context.Context, id domain.StreamID, update domain.StreamUpdate) error {
	if update.DisplayName != nil {
		if err := validation.ValidateDisplayName(*update.DisplayName); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
	}
	if update.SourceURL != nil {
		if err := validation.ValidateSourceURL(*update.SourceURL); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
	}
	if update.Tags != nil {
		if err := validation.ValidateTags(*update.Tags); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
	}

	s.mu.Lock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.ErrStreamNotFound
	}

	stream := s.session.Streams[idx]
	if update.DisplayName != nil {
		stream.DisplayName = *update.DisplayName
	}
	if update.Title != nil {
		stream.Title = *update.Title
	}
	if update.Category != nil {
		stream.Category = *update.Category
	}
	if update.Language != nil {
		stream.Language = *update.Language
	}
	if update.SourceURL != nil {
		stream.SourceURL = *update.SourceURL
	}
	if update.IsLive != nil {
		stream.IsLive = *update.IsLive
	}
	if update.Tags != nil {
		stream.Tags = append([]string(nil), (*update.Tags)...)
	}
	if update.IsPinned != nil {
		s.session.States[id].IsPinned = *update.IsPinned
	}

	snap := s.session.Clone()
	s.mu.Unlock()

	s.afterMutation(ctx, snap, domain.ChangeEvent{Type: domain.EventStreamUpdated, StreamID: id})
	return nil
}

func (s *sessionService) SetVolume(ctx context.Context, id domain.StreamID, volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	s.mu.Lock()
	state, ok := s.session.States[id]
	if !ok {
		s.mu.Unlock()
		return domain.ErrStreamNotFound
	}
	state.Volume = volume

	snap := s.session.Clone()
	s.mu.Unlock()

	s.afterMutation(ctx, snap, domain.ChangeEvent{Type: domain.EventVolumeChanged, StreamID: id})
	return nil
}

// ToggleMute flips the mute bit. Unmuting forces every other stream to mute
// first so at most one audible stream ever exists; muting the audible stream
// leaves the set silent.
func (s *sessionService) ToggleMute(ctx context.Context, id domain.StreamID) error {
	s.mu.Lock()
	state, ok := s.session.States[id]
	if !ok {
		s.mu.Unlock()
		return domain.ErrStreamNotFound
	}

	if state.IsMuted {
		for otherID, other := range s.session.States {
			if otherID != id {
				other.IsMuted = true
			}
		}
		state.IsMuted = false
	} else {
		state.IsMuted = true
	}

	snap := s.session.Clone()
	s.mu.Unlock()

	s.afterMutation(ctx, snap, domain.ChangeEvent{Type: domain.EventMuteChanged, StreamID: id})
	return nil
}

func (s *sessionService) SetQuality(ctx context.Context, id domain.StreamID, quality domain.Quality) error {
	if !quality.Valid() {
		return fmt.Errorf("%w: unknown quality %q", domain.ErrInvalidArgument, quality)
	}

	s.mu.Lock()
	state, ok := s.session.States[id]
	if !ok {
		s.mu.Unlock()
		return domain.ErrStreamNotFound
	}
	state.Quality = quality

	snap := s.session.Clone()
	s.mu.Unlock()

	s.afterMutation(ctx, snap, domain.ChangeEvent{Type: domain.EventQualityChanged, StreamID: id})
	return nil
}

func (s *sessionService) Reorder(ctx context.Context, fromIndex, toIndex int) error {
	s.mu.Lock()
	n := len(s.session.Streams)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
		s.mu.Unlock()
		return fmt.Errorf("%w: from=%d to=%d len=%d", domain.ErrIndexOutOfRange, fromIndex, toIndex, n)
	}

	stream := s.session.Streams[fromIndex]
	s.session.Streams = append(s.session.Streams[:fromIndex], s.session.Streams[fromIndex+1:]...)
	s.session.Streams = append(s.session.Streams[:toIndex], append([]*domain.Stream{stream}, s.session.Streams[toIndex:]...)...)
	s.compactPositionsLocked()

	snap := s.session.Clone()
	s.mu.Unlock()

	s.afterMutation(ctx, snap, domain.ChangeEvent{Type: domain.EventStreamsReorder, StreamID: stream.ID})
	return nil
}

func (s *sessionService) SetGridLayout(ctx context.Context, mode domain.LayoutMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown layout mode %q", domain.ErrInvalidArgument, mode)
	}

	s.mu.Lock()
	s.session.LayoutMode = mode
	snap := s.session.Clone()
	s.mu.Unlock()

	s.afterMutation(ctx, snap, domain.ChangeEvent{Type: domain.EventLayoutChanged})
	return nil
}

func (s *sessionService) SetCustomLayout(ctx context.Context, rows, cols int) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("%w: rows and cols must be >= 1", domain.ErrInvalidArgument)
	}

	s.mu.Lock()
	s.session.CustomLayout = domain.CustomLayout{Rows: rows, Cols: cols}
	snap := s.session.Clone()
	s.mu.Unlock()

	s.afterMutation(ctx, snap, domain.ChangeEvent{Type: domain.EventLayoutChanged})
	return nil
}

func (s *sessionService) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	s.session.Streams = []*domain.Stream{}
	s.session.States = make(map[domain.StreamID]*domain.StreamState)
	snap := s.session.Clone()
	s.mu.Unlock()

	s.afterMutation(ctx, snap, domain.ChangeEvent{Type: domain.EventSessionCleared})
	return nil
}

func (s *sessionService) Snapshot() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

func (s *sessionService) Subscribe(fn func(domain.ChangeEvent)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *sessionService) indexOfLocked(id domain.StreamID) int {
	for i, st := range s.session.Streams {
		if st.ID == id {
			return i
		}
	}
	return -1
}

// afterMutation persists the snapshot and notifies observers. Persistence is
// best-effort: a failed save is logged, never surfaced to the caller, since
// the in-memory session remains authoritative.
func (s *sessionService) afterMutation(ctx context.Context, snap *domain.Session, event domain.ChangeEvent) {
	if err := s.repo.Save(ctx, snap); err != nil {
		s.logger.Warnw("failed to persist session", "event", event.Type, "error", err)
	}

	event.Timestamp = time.Now()

	s.subMu.RLock()
	subs := make([]func(domain.ChangeEvent), len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(event)
	}
}
