package domain

// LayoutMode names a grid arrangement of stream cells.
type LayoutMode string

const (
	Layout1x1    LayoutMode = "1x1"
	Layout2x2    LayoutMode = "2x2"
	Layout3x3    LayoutMode = "3x3"
	LayoutCustom LayoutMode = "custom"
)

func (m LayoutMode) Valid() bool {
	switch m {
	case Layout1x1, Layout2x2, Layout3x3, LayoutCustom:
		return true
	}
	return false
}

// CustomLayout holds the grid dimensions used when LayoutMode is "custom".
type CustomLayout struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Session is the full active-stream set plus layout selection. Ordering of
// Streams is authoritative; each StreamState.Position mirrors it as a dense
// 0-based permutation.
type Session struct {
	Streams      []*Stream                 `json:"streams"`
	States       map[StreamID]*StreamState `json:"states"`
	LayoutMode   LayoutMode                `json:"layout_mode"`
	CustomLayout CustomLayout              `json:"custom_layout"`
}

// NewSession returns an empty session with the default layout.
func NewSession() *Session {
	return &Session{
		Streams:      []*Stream{},
		States:       make(map[StreamID]*StreamState),
		LayoutMode:   Layout2x2,
		CustomLayout: CustomLayout{Rows: 2, Cols: 2},
	}
}

// Clone returns a deep copy safe to hand to readers outside the manager's lock.
func (s *Session) Clone() *Session {
	out := &Session{
		Streams:      make([]*Stream, len(s.Streams)),
		States:       make(map[StreamID]*StreamState, len(s.States)),
		LayoutMode:   s.LayoutMode,
		CustomLayout: s.CustomLayout,
	}
	for i, st := range s.Streams {
		c := *st
		if st.Tags != nil {
			c.Tags = append([]string(nil), st.Tags...)
		}
		out.Streams[i] = &c
	}
	for id, state := range s.States {
		c := *state
		out.States[id] = &c
	}
	return out
}

// AudibleStream returns the single unmuted stream, or nil when everything is
// muted.
func (s *Session) AudibleStream() *Stream {
	for _, st := range s.Streams {
		if state, ok := s.States[st.ID]; ok && !state.IsMuted {
			return st
		}
	}
	return nil
}
