package compositor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/layout"
	"gridcast/internal/core/ports"
	"gridcast/pkg/scheduler"

	"go.uber.org/zap"
)

// State is the render-loop lifecycle.
type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StateStopped      State = "stopped"
)

// Stats is advisory telemetry about the render loop; it never affects
// correctness.
type Stats struct {
	State            State         `json:"state"`
	TargetFPS        int           `json:"target_fps"`
	FramesDrawn      uint64        `json:"frames_drawn"`
	FramesDropped    uint64        `json:"frames_dropped"`
	LastTickDuration time.Duration `json:"last_tick_duration"`
	StreamsDrawn     int           `json:"streams_drawn"`
}

type Config struct {
	Width        int
	Height       int
	FrameRate    int
	ShowLabels   bool
	Watermark    string
	ChromeHeight int
}

var platformColors = map[domain.Platform]color.RGBA{
	domain.PlatformTwitch:  {R: 0x91, G: 0x46, B: 0xff, A: 0xff},
	domain.PlatformYouTube: {R: 0xff, G: 0x00, B: 0x00, A: 0xff},
	domain.PlatformKick:    {R: 0x53, G: 0xfc, B: 0x18, A: 0xff},
	domain.PlatformCustom:  {R: 0x44, G: 0x44, B: 0x44, A: 0xff},
}

// Compositor composites every active stream into a single synthetic output
// surface on a timed render loop. Each tick reads a fresh session snapshot,
// so streams added or removed mid-run are picked up on the next tick without
// any cross-tick locking.
type Compositor struct {
	cfg     Config
	session ports.SessionService
	frames  ports.FrameSource
	logger  *zap.SugaredLogger
	onTick  func(d time.Duration, dropped bool)

	task *scheduler.Task

	mu      sync.Mutex
	state   State
	surface *Surface
	stats   Stats
	budget  time.Duration
}

// New builds an idle compositor. onTick is an optional metrics hook; nil is
// allowed.
func New(cfg Config, session ports.SessionService, frames ports.FrameSource, onTick func(d time.Duration, dropped bool), logger *zap.SugaredLogger) *Compositor {
	if onTick == nil {
		onTick = func(time.Duration, bool) {}
	}
	c := &Compositor{
		cfg:     cfg,
		session: session,
		frames:  frames,
		logger:  logger,
		onTick:  onTick,
		state:   StateIdle,
		budget:  time.Second / time.Duration(cfg.FrameRate),
	}
	c.task = scheduler.New("compositor", c.budget, c.tick, logger)
	return c
}

func (c *Compositor) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateRunning {
		c.mu.Unlock()
		return domain.ErrInvalidState
	}
	c.state = StateInitializing

	surface, err := NewSurface(c.cfg.Width, c.cfg.Height)
	if err != nil {
		c.state = StateIdle
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	c.surface = surface
	c.state = StateRunning
	c.stats = Stats{State: StateRunning, TargetFPS: c.cfg.FrameRate}
	c.mu.Unlock()

	c.task.Start(ctx)
	c.logger.Infow("compositor started", "fps", c.cfg.FrameRate, "size", fmt.Sprintf("%dx%d", c.cfg.Width, c.cfg.Height))
	return nil
}

// Stop deterministically releases the surface and cancels the scheduled
// tick; no draw happens after Stop returns.
func (c *Compositor) Stop() error {
	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return domain.ErrInvalidState
	}
	c.state = StateStopped
	c.stats.State = StateStopped
	c.surface = nil
	c.mu.Unlock()

	c.task.Stop()
	c.logger.Infow("compositor stopped")
	return nil
}

func (c *Compositor) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Compositor) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Output exposes the latest composited frame as a recorder capture source.
func (c *Compositor) Output() ports.CaptureSource {
	return &output{c: c}
}

func (c *Compositor) tick(ctx context.Context) {
	start := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning || c.surface == nil {
		return
	}

	// The snapshot taken here is the authoritative view for this tick only.
	snap := c.session.Snapshot()
	c.drawLocked(ctx, snap)

	elapsed := time.Since(start)
	dropped := elapsed > c.budget
	c.stats.FramesDrawn++
	if dropped {
		c.stats.FramesDropped++
	}
	c.stats.LastTickDuration = elapsed
	c.stats.StreamsDrawn = len(snap.Streams)
	c.onTick(elapsed, dropped)
}

func (c *Compositor) drawLocked(ctx context.Context, snap *domain.Session) {
	c.surface.Clear(color.Black)

	bounds := c.surface.Bounds()
	focusFirst := false
	if snap.LayoutMode == domain.LayoutCustom && len(snap.Streams) > 0 {
		if state, ok := snap.States[snap.Streams[0].ID]; ok {
			focusFirst = state.IsPinned
		}
	}

	grid := layout.Compute(
		snap.LayoutMode,
		snap.CustomLayout,
		len(snap.Streams),
		float64(bounds.Dx()),
		float64(bounds.Dy()),
		float64(c.cfg.ChromeHeight),
		focusFirst,
	)

	// Streams are drawn in position order; the session sequence is the
	// authoritative order.
	for i, stream := range snap.Streams {
		if i >= len(grid.Cells) {
			break
		}
		cell := grid.Cells[i]
		rect := image.Rect(int(cell.X), int(cell.Y), int(cell.X+cell.Width), int(cell.Y+cell.Height))

		if frame, ok := c.frames.Frame(ctx, stream.ID); ok {
			c.surface.DrawImage(frame, rect)
		} else {
			// unavailable frame: placeholder fill, skipped without error
			c.surface.FillRect(rect, platformColor(stream.Platform))
		}

		if c.cfg.ShowLabels {
			label := fmt.Sprintf("%s · %s", stream.ChannelName, stream.Platform)
			c.surface.DrawLabel(label, rect.Min.X+6, rect.Max.Y-6, color.White, color.RGBA{A: 0xc0})
		}
	}

	if c.cfg.Watermark != "" {
		c.surface.DrawLabel(c.cfg.Watermark, bounds.Max.X-7*len(c.cfg.Watermark)-10, bounds.Max.Y-6, color.White, color.RGBA{A: 0x80})
	}
}

func platformColor(p domain.Platform) color.RGBA {
	if c, ok := platformColors[p]; ok {
		return c
	}
	return platformColors[domain.PlatformCustom]
}

type output struct {
	c *Compositor
}

// ReadChunk returns the current frame's raw pixels, or nil when the
// compositor is not running.
func (o *output) ReadChunk(ctx context.Context) ([]byte, error) {
	o.c.mu.Lock()
	defer o.c.mu.Unlock()
	if o.c.state != StateRunning || o.c.surface == nil {
		return nil, nil
	}
	return o.c.surface.Snapshot(), nil
}
