package domain

import "time"

// SegmentStatus is the per-segment recording state machine. Transitions are
// strictly forward: recording -> processing -> completed, with an error edge
// from recording or processing to failed. Completed and failed are terminal.
type SegmentStatus string

const (
	SegmentRecording  SegmentStatus = "recording"
	SegmentProcessing SegmentStatus = "processing"
	SegmentCompleted  SegmentStatus = "completed"
	SegmentFailed     SegmentStatus = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s SegmentStatus) Terminal() bool {
	return s == SegmentCompleted || s == SegmentFailed
}

// RecordingSegment is one contiguous recorded output unit, bounded by an
// explicit stop, an auto-split boundary, or the max-duration limit.
type RecordingSegment struct {
	ID                   SegmentID     `json:"id"`
	Name                 string        `json:"name"`
	ParticipantStreamIDs []StreamID    `json:"participant_stream_ids"`
	StartTime            time.Time     `json:"start_time"`
	EndTime              *time.Time    `json:"end_time,omitempty"`
	Status               SegmentStatus `json:"status"`
	SizeBytes            int64         `json:"size_bytes"`
	DurationMs           int64         `json:"duration_ms"`
	FilePath             string        `json:"file_path,omitempty"`
	Error                string        `json:"error,omitempty"`
}

// RecordingSettings selects the capture behavior for new segments.
type RecordingSettings struct {
	Name            string        `json:"name"`
	Quality         Quality       `json:"quality"`
	AutoSplit       bool          `json:"auto_split"`
	SplitDuration   time.Duration `json:"split_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
	MinSegmentBytes int64         `json:"min_segment_bytes"`
}
