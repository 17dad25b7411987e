package streaming

import (
	"context"
	"hash/fnv"
	"image"
	"image/color"
	"sync"
	"time"

	"gridcast/internal/core/domain"

	"go.uber.org/zap"
)

// PatternFrameSource synthesizes a moving test pattern per stream. It stands
// in for the player-surface capture bridge: the compositor only needs
// something that answers Frame, and streams without a registered frame fall
// back to their platform placeholder.
type PatternFrameSource struct {
	width  int
	height int
	logger *zap.SugaredLogger

	mu       sync.RWMutex
	disabled map[domain.StreamID]bool
}

func NewPatternFrameSource(width, height int, logger *zap.SugaredLogger) *PatternFrameSource {
	return &PatternFrameSource{
		width:    width,
		height:   height,
		logger:   logger,
		disabled: make(map[domain.StreamID]bool),
	}
}

// SetAvailable toggles frame production for a stream. An unavailable stream
// reports no frame, which the compositor renders as a placeholder cell.
func (s *PatternFrameSource) SetAvailable(id domain.StreamID, available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if available {
		delete(s.disabled, id)
	} else {
		s.disabled[id] = true
	}
}

func (s *PatternFrameSource) Frame(ctx context.Context, id domain.StreamID) (image.Image, bool) {
	s.mu.RLock()
	off := s.disabled[id]
	s.mu.RUnlock()
	if off {
		return nil, false
	}

	return &patternImage{
		rect:  image.Rect(0, 0, s.width, s.height),
		seed:  streamSeed(id),
		phase: int(time.Now().UnixMilli() / 100),
	}, true
}

func streamSeed(id domain.StreamID) uint32 {
	h := fnv.New32a()
	h.Write([]byte(id))
	return h.Sum32()
}

// patternImage renders vertical color bars hued by the stream seed, scrolling
// with phase so motion is visible in composited output.
type patternImage struct {
	rect  image.Rectangle
	seed  uint32
	phase int
}

func (p *patternImage) ColorModel() color.Model { return color.RGBAModel }

func (p *patternImage) Bounds() image.Rectangle { return p.rect }

func (p *patternImage) At(x, y int) color.Color {
	const barWidth = 32
	bar := uint32((x+p.phase)/barWidth) + p.seed

	return color.RGBA{
		R: uint8(bar * 97),
		G: uint8(bar * 57),
		B: uint8(bar * 31),
		A: 0xff,
	}
}
