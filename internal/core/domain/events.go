package domain

import (
	"encoding/json"
	"time"
)

// EventType labels a session change notification.
type EventType string

const (
	EventStreamAdded     EventType = "stream.added"
	EventStreamRemoved   EventType = "stream.removed"
	EventStreamUpdated   EventType = "stream.updated"
	EventStreamsReorder  EventType = "streams.reordered"
	EventVolumeChanged   EventType = "volume.changed"
	EventMuteChanged     EventType = "mute.changed"
	EventQualityChanged  EventType = "quality.changed"
	EventLayoutChanged   EventType = "layout.changed"
	EventSessionCleared  EventType = "session.cleared"
	EventRecordingStart  EventType = "recording.started"
	EventRecordingSplit  EventType = "recording.split"
	EventRecordingStop   EventType = "recording.stopped"
	EventRecordingFailed EventType = "recording.failed"
)

// ChangeEvent is published after every successful mutation so persistence and
// UI layers can react independently of the session manager.
type ChangeEvent struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	StreamID  StreamID        `json:"stream_id,omitempty"`
	SegmentID SegmentID       `json:"segment_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}
