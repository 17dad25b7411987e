package compositor

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"
	"gridcast/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type nullSessionRepo struct{}

func (nullSessionRepo) Save(ctx context.Context, s *domain.Session) error { return nil }
func (nullSessionRepo) Load(ctx context.Context) (*domain.Session, error) {
	return domain.NewSession(), nil
}
func (nullSessionRepo) Clear(ctx context.Context) error { return nil }

type stubFrames struct {
	frames map[domain.StreamID]image.Image
}

func (f *stubFrames) Frame(ctx context.Context, id domain.StreamID) (image.Image, bool) {
	img, ok := f.frames[id]
	return img, ok
}

func testConfig() Config {
	return Config{Width: 320, Height: 240, FrameRate: 1, ShowLabels: false}
}

func newFixture(t *testing.T, streamIDs ...string) (*Compositor, ports.SessionService, *stubFrames) {
	t.Helper()

	session := services.NewSessionService(context.Background(), nullSessionRepo{}, 16, zaptest.NewLogger(t).Sugar())
	for _, id := range streamIDs {
		_, err := session.AddStream(context.Background(), &domain.Stream{
			ID:          domain.StreamID(id),
			Platform:    domain.PlatformTwitch,
			ChannelName: "chan_" + id,
		})
		require.NoError(t, err)
	}

	frames := &stubFrames{frames: map[domain.StreamID]image.Image{}}
	c := New(testConfig(), session, frames, nil, zaptest.NewLogger(t).Sugar())
	t.Cleanup(func() {
		if c.State() == StateRunning {
			_ = c.Stop()
		}
	})
	return c, session, frames
}

func TestCompositor_Lifecycle(t *testing.T) {
	c, _, _ := newFixture(t, "s1")
	ctx := context.Background()

	assert.Equal(t, StateIdle, c.State())

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, StateRunning, c.State())

	assert.ErrorIs(t, c.Start(ctx), domain.ErrInvalidState, "double start")

	require.NoError(t, c.Stop())
	assert.Equal(t, StateStopped, c.State())
	assert.ErrorIs(t, c.Stop(), domain.ErrInvalidState, "double stop")

	// a stopped compositor can be restarted
	require.NoError(t, c.Start(ctx))
	assert.Equal(t, StateRunning, c.State())
}

func TestCompositor_InitFailureReturnsToIdle(t *testing.T) {
	session := services.NewSessionService(context.Background(), nullSessionRepo{}, 16, zaptest.NewLogger(t).Sugar())
	cfg := testConfig()
	cfg.Width = 0
	c := New(cfg, session, &stubFrames{}, nil, zaptest.NewLogger(t).Sugar())

	err := c.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Equal(t, StateIdle, c.State())
}

func TestCompositor_TickDrawsPlaceholderCells(t *testing.T) {
	c, _, _ := newFixture(t, "s1", "s2")
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	c.tick(ctx)

	// position-0 cell carries the twitch placeholder fill
	c.mu.Lock()
	got := c.surface.At(80, 60)
	c.mu.Unlock()
	assert.Equal(t, platformColors[domain.PlatformTwitch], got)

	stats := c.Stats()
	assert.GreaterOrEqual(t, stats.FramesDrawn, uint64(1))
	assert.Equal(t, 2, stats.StreamsDrawn)
}

func TestCompositor_DrawsAvailableFrames(t *testing.T) {
	c, _, frames := newFixture(t, "s1")
	ctx := context.Background()

	blue := color.RGBA{B: 0xff, A: 0xff}
	frame := image.NewRGBA(image.Rect(0, 0, 64, 36))
	for i := range frame.Pix {
		switch i % 4 {
		case 2:
			frame.Pix[i] = 0xff
		case 3:
			frame.Pix[i] = 0xff
		}
	}
	frames.frames["s1"] = frame

	require.NoError(t, c.Start(ctx))
	c.tick(ctx)

	c.mu.Lock()
	got := c.surface.At(80, 60)
	c.mu.Unlock()
	assert.Equal(t, blue, got)
}

func TestCompositor_ToleratesStreamChurnBetweenTicks(t *testing.T) {
	c, session, _ := newFixture(t, "s1", "s2")
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	c.tick(ctx)

	require.NoError(t, session.RemoveStream(ctx, "s2"))
	c.tick(ctx)
	assert.Equal(t, 1, c.Stats().StreamsDrawn)

	_, err := session.AddStream(ctx, &domain.Stream{Platform: domain.PlatformKick, ChannelName: "late"})
	require.NoError(t, err)
	c.tick(ctx)
	assert.Equal(t, 2, c.Stats().StreamsDrawn)
}

func TestCompositor_EmptySessionTickIsHarmless(t *testing.T) {
	c, _, _ := newFixture(t)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	c.tick(ctx)
	assert.Equal(t, 0, c.Stats().StreamsDrawn)
}

func TestCompositor_OutputChunks(t *testing.T) {
	c, _, _ := newFixture(t, "s1")
	ctx := context.Background()

	out := c.Output()

	// not running yet: no chunk, no error
	chunk, err := out.ReadChunk(ctx)
	require.NoError(t, err)
	assert.Nil(t, chunk)

	require.NoError(t, c.Start(ctx))
	c.tick(ctx)

	chunk, err = out.ReadChunk(ctx)
	require.NoError(t, err)
	assert.Len(t, chunk, 320*240*4, "raw RGBA frame")

	require.NoError(t, c.Stop())
	chunk, err = out.ReadChunk(ctx)
	require.NoError(t, err)
	assert.Nil(t, chunk, "no output after stop")
}

func TestCompositor_NoTicksAfterStop(t *testing.T) {
	c, _, _ := newFixture(t, "s1")
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	c.tick(ctx)
	require.NoError(t, c.Stop())

	drawn := c.Stats().FramesDrawn
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, drawn, c.Stats().FramesDrawn)
}

func TestCompositor_MetricsHook(t *testing.T) {
	session := services.NewSessionService(context.Background(), nullSessionRepo{}, 16, zaptest.NewLogger(t).Sugar())
	_, err := session.AddStream(context.Background(), &domain.Stream{Platform: domain.PlatformTwitch, ChannelName: "c"})
	require.NoError(t, err)

	var calls int
	c := New(testConfig(), session, &stubFrames{}, func(d time.Duration, dropped bool) {
		calls++
	}, zaptest.NewLogger(t).Sugar())

	require.NoError(t, c.Start(context.Background()))
	c.tick(context.Background())
	require.NoError(t, c.Stop())

	assert.GreaterOrEqual(t, calls, 1)
}
