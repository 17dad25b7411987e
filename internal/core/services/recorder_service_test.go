package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gridcast/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubCapture struct {
	chunk []byte
	err   error
}

func (c *stubCapture) ReadChunk(ctx context.Context) ([]byte, error) {
	return c.chunk, c.err
}

type stubSink struct {
	mu          sync.Mutex
	begun       map[domain.SegmentID]bool
	appended    map[domain.SegmentID]int64
	beginErr    error
	finalizeErr error
	removed     []domain.SegmentID
}

func newStubSink() *stubSink {
	return &stubSink{
		begun:    make(map[domain.SegmentID]bool),
		appended: make(map[domain.SegmentID]int64),
	}
}

func (s *stubSink) Begin(id domain.SegmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beginErr != nil {
		return s.beginErr
	}
	s.begun[id] = true
	return nil
}

func (s *stubSink) Append(id domain.SegmentID, data []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appended[id] += int64(len(data))
	return int64(len(data)), nil
}

func (s *stubSink) Finalize(id domain.SegmentID, name string) (string, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalizeErr != nil {
		return "", 0, s.finalizeErr
	}
	return "/recordings/" + string(id) + ".rec", s.appended[id], nil
}

func (s *stubSink) Remove(id domain.SegmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, id)
	return nil
}

type stubSegmentRepo struct {
	mu       sync.Mutex
	segments map[domain.SegmentID]*domain.RecordingSegment
	statuses map[domain.SegmentID][]domain.SegmentStatus
}

func newStubSegmentRepo() *stubSegmentRepo {
	return &stubSegmentRepo{
		segments: make(map[domain.SegmentID]*domain.RecordingSegment),
		statuses: make(map[domain.SegmentID][]domain.SegmentStatus),
	}
}

func (r *stubSegmentRepo) Save(ctx context.Context, seg *domain.RecordingSegment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments[seg.ID] = seg
	history := r.statuses[seg.ID]
	if len(history) == 0 || history[len(history)-1] != seg.Status {
		r.statuses[seg.ID] = append(history, seg.Status)
	}
	return nil
}

func (r *stubSegmentRepo) GetByID(ctx context.Context, id domain.SegmentID) (*domain.RecordingSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seg, ok := r.segments[id]
	if !ok {
		return nil, domain.ErrSegmentNotFound
	}
	return seg, nil
}

func (r *stubSegmentRepo) List(ctx context.Context) ([]*domain.RecordingSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.RecordingSegment, 0, len(r.segments))
	for _, seg := range r.segments {
		out = append(out, seg)
	}
	return out, nil
}

func (r *stubSegmentRepo) Delete(ctx context.Context, id domain.SegmentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.segments, id)
	return nil
}

type stubQuota struct {
	avail int64
	err   error
}

func (q *stubQuota) Available(ctx context.Context) (int64, error) {
	return q.avail, q.err
}

type recorderFixture struct {
	svc   *recorderService
	sink  *stubSink
	repo  *stubSegmentRepo
	quota *stubQuota
	clock *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newRecorderFixture(t *testing.T, streamCount int) *recorderFixture {
	t.Helper()

	session := newTestService(t, nil, 16)
	for i := 0; i < streamCount; i++ {
		_, err := session.AddStream(context.Background(), testStream(string(rune('a'+i))))
		require.NoError(t, err)
	}

	sink := newStubSink()
	repo := newStubSegmentRepo()
	quota := &stubQuota{avail: 1 << 40}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	svc := NewRecorderService(
		session,
		&stubCapture{chunk: []byte("frame")},
		sink,
		repo,
		quota,
		time.Hour, // ticks driven manually in tests
		nil,
		zaptest.NewLogger(t).Sugar(),
	).(*recorderService)
	svc.now = clock.Now

	t.Cleanup(svc.task.Stop)
	return &recorderFixture{svc: svc, sink: sink, repo: repo, quota: quota, clock: clock}
}

func startSettings() domain.RecordingSettings {
	return domain.RecordingSettings{
		Name:            "session",
		Quality:         domain.Quality1080p,
		MinSegmentBytes: 1024,
	}
}

func TestRecorder_StartStopStateMachine(t *testing.T) {
	f := newRecorderFixture(t, 2)
	ctx := context.Background()

	seg, err := f.svc.Start(ctx, startSettings())
	require.NoError(t, err)
	assert.Equal(t, domain.SegmentRecording, seg.Status)
	assert.Len(t, seg.ParticipantStreamIDs, 2)

	f.clock.Advance(5 * time.Second)
	f.svc.tick(ctx)

	done, err := f.svc.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SegmentCompleted, done.Status)
	require.NotNil(t, done.EndTime)
	assert.EqualValues(t, 5000, done.DurationMs)
	assert.NotEmpty(t, done.FilePath)
	assert.Nil(t, f.svc.Active())

	// the status history never skips a state and never revisits recording
	assert.Equal(t, []domain.SegmentStatus{
		domain.SegmentRecording,
		domain.SegmentProcessing,
		domain.SegmentCompleted,
	}, f.repo.statuses[seg.ID])
}

func TestRecorder_StartRequiresActiveStreams(t *testing.T) {
	f := newRecorderFixture(t, 0)
	_, err := f.svc.Start(context.Background(), startSettings())
	assert.ErrorIs(t, err, domain.ErrNoActiveStreams)
}

func TestRecorder_StartRejectedWhenStorageLow(t *testing.T) {
	f := newRecorderFixture(t, 1)
	f.quota.avail = 100

	_, err := f.svc.Start(context.Background(), startSettings())
	assert.ErrorIs(t, err, domain.ErrStorageExceeded)
}

func TestRecorder_QuotaErrorDoesNotBlockStart(t *testing.T) {
	f := newRecorderFixture(t, 1)
	f.quota.err = errors.New("quota api down")

	_, err := f.svc.Start(context.Background(), startSettings())
	assert.NoError(t, err, "quota collaborator is advisory")
}

func TestRecorder_StartWhileBusy(t *testing.T) {
	f := newRecorderFixture(t, 1)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, startSettings())
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, startSettings())
	assert.ErrorIs(t, err, domain.ErrRecorderBusy)
}

func TestRecorder_PauseResume(t *testing.T) {
	f := newRecorderFixture(t, 1)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Pause(ctx), domain.ErrInvalidState)
	assert.ErrorIs(t, f.svc.Resume(ctx), domain.ErrInvalidState)

	seg, err := f.svc.Start(ctx, startSettings())
	require.NoError(t, err)

	require.NoError(t, f.svc.Pause(ctx))
	assert.ErrorIs(t, f.svc.Pause(ctx), domain.ErrInvalidState, "double pause")

	// paused ticks accumulate no chunks
	f.clock.Advance(time.Second)
	f.svc.tick(ctx)
	assert.EqualValues(t, 0, f.sink.appended[seg.ID])

	require.NoError(t, f.svc.Resume(ctx))
	f.clock.Advance(time.Second)
	f.svc.tick(ctx)
	assert.EqualValues(t, len("frame"), f.sink.appended[seg.ID])
}

func TestRecorder_ChunkAccumulation(t *testing.T) {
	f := newRecorderFixture(t, 1)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, startSettings())
	require.NoError(t, err)

	var lastSize int64 = -1
	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Second)
		f.svc.tick(ctx)
		active := f.svc.Active()
		require.NotNil(t, active)
		assert.Greater(t, active.SizeBytes, lastSize, "size is monotonically non-decreasing")
		lastSize = active.SizeBytes
	}
}

func TestRecorder_FinalizationFaultYieldsFailed(t *testing.T) {
	f := newRecorderFixture(t, 1)
	ctx := context.Background()

	seg, err := f.svc.Start(ctx, startSettings())
	require.NoError(t, err)

	f.sink.finalizeErr = errors.New("disk gone")
	done, err := f.svc.Stop(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.SegmentFailed, done.Status)
	assert.Contains(t, done.Error, "disk gone")
	assert.Equal(t, []domain.SegmentStatus{
		domain.SegmentRecording,
		domain.SegmentProcessing,
		domain.SegmentFailed,
	}, f.repo.statuses[seg.ID])
}

func TestRecorder_AutoSplitContinuity(t *testing.T) {
	f := newRecorderFixture(t, 2)
	ctx := context.Background()

	settings := startSettings()
	settings.AutoSplit = true
	settings.SplitDuration = time.Minute

	first, err := f.svc.Start(ctx, settings)
	require.NoError(t, err)

	// drive 2.5 minutes of wall clock in 10s ticks
	for i := 0; i < 15; i++ {
		f.clock.Advance(10 * time.Second)
		f.svc.tick(ctx)
	}
	last, err := f.svc.Stop(ctx)
	require.NoError(t, err)

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3, "2.5 minutes with 1-minute splits yields 3 segments")

	byStart := map[domain.SegmentID]*domain.RecordingSegment{}
	for _, seg := range all {
		byStart[seg.ID] = seg
		assert.Equal(t, domain.SegmentCompleted, seg.Status)
		assert.Len(t, seg.ParticipantStreamIDs, 2)
	}

	// fresh ids throughout, first and last bound the run
	assert.NotEqual(t, first.ID, last.ID)

	// time ranges are disjoint and contiguous over the whole session
	ordered := []*domain.RecordingSegment{}
	for _, seg := range all {
		ordered = append(ordered, seg)
	}
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if ordered[j].StartTime.Before(ordered[i].StartTime) {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}
	for i := 1; i < len(ordered); i++ {
		require.NotNil(t, ordered[i-1].EndTime)
		assert.Equal(t, *ordered[i-1].EndTime, ordered[i].StartTime, "segment %d starts where %d ended", i, i-1)
	}
	assert.Equal(t, first.StartTime, ordered[0].StartTime)
}

func TestRecorder_MaxDurationStopsWithoutRestart(t *testing.T) {
	f := newRecorderFixture(t, 1)
	ctx := context.Background()

	settings := startSettings()
	settings.MaxDuration = 30 * time.Second

	_, err := f.svc.Start(ctx, settings)
	require.NoError(t, err)

	f.clock.Advance(31 * time.Second)
	f.svc.tick(ctx)

	assert.Nil(t, f.svc.Active(), "max duration stops recording")
	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.SegmentCompleted, all[0].Status)
}

func TestRecorder_StopWhenIdle(t *testing.T) {
	f := newRecorderFixture(t, 1)
	_, err := f.svc.Stop(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestRecorder_DeleteSegment(t *testing.T) {
	f := newRecorderFixture(t, 1)
	ctx := context.Background()

	seg, err := f.svc.Start(ctx, startSettings())
	require.NoError(t, err)

	// the in-flight segment cannot be deleted
	assert.ErrorIs(t, f.svc.Delete(ctx, seg.ID), domain.ErrInvalidState)

	_, err = f.svc.Stop(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, seg.ID))
	assert.Contains(t, f.sink.removed, seg.ID)

	assert.ErrorIs(t, f.svc.Delete(ctx, "absent"), domain.ErrSegmentNotFound)
}

func TestRecorder_SplitAndStopMutuallyExclusive(t *testing.T) {
	f := newRecorderFixture(t, 1)
	ctx := context.Background()

	settings := startSettings()
	settings.AutoSplit = true
	settings.SplitDuration = time.Minute

	_, err := f.svc.Start(ctx, settings)
	require.NoError(t, err)

	f.clock.Advance(61 * time.Second)

	// tick (split) and stop race on the same mutex; every accumulated chunk
	// must land in exactly one finalized segment
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		f.svc.tick(ctx)
	}()
	go func() {
		defer wg.Done()
		f.svc.Stop(ctx)
	}()
	wg.Wait()

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	for _, seg := range all {
		assert.True(t, seg.Status.Terminal() || seg.Status == domain.SegmentRecording,
			"segment %s left in %s", seg.ID, seg.Status)
	}
}

func TestRecorder_TicksOutliveStartContext(t *testing.T) {
	session := newTestService(t, nil, 16)
	_, err := session.AddStream(context.Background(), testStream("a"))
	require.NoError(t, err)

	sink := newStubSink()
	svc := NewRecorderService(
		session,
		&stubCapture{chunk: []byte("frame")},
		sink,
		newStubSegmentRepo(),
		&stubQuota{avail: 1 << 40},
		5*time.Millisecond,
		nil,
		zaptest.NewLogger(t).Sugar(),
	).(*recorderService)

	ctx, cancel := context.WithCancel(context.Background())
	seg, err := svc.Start(ctx, startSettings())
	require.NoError(t, err)
	cancel() // the request that started the recording is long gone

	assert.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.appended[seg.ID] > 0
	}, time.Second, 5*time.Millisecond,
		"chunks must keep accumulating after the starting request ends")
	require.NotNil(t, svc.Active())

	done, err := svc.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SegmentCompleted, done.Status)
}
