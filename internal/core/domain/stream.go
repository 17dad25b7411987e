package domain

import (
	"time"
)

type StreamID string
type SegmentID string

// Platform identifies where a stream's embedded player comes from.
type Platform string

const (
	PlatformTwitch  Platform = "twitch"
	PlatformYouTube Platform = "youtube"
	PlatformKick    Platform = "kick"
	PlatformCustom  Platform = "custom"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformTwitch, PlatformYouTube, PlatformKick, PlatformCustom:
		return true
	}
	return false
}

// Quality is the playback quality intent forwarded to the embedded player.
type Quality string

const (
	QualityAuto  Quality = "auto"
	Quality1080p Quality = "1080p"
	Quality720p  Quality = "720p"
	Quality480p  Quality = "480p"
	Quality360p  Quality = "360p"
)

func (q Quality) Valid() bool {
	switch q {
	case QualityAuto, Quality1080p, Quality720p, Quality480p, Quality360p:
		return true
	}
	return false
}

// Stream describes one live-video source added to the session.
type Stream struct {
	ID          StreamID  `json:"id"`
	Platform    Platform  `json:"platform"`
	ChannelName string    `json:"channel_name"`
	DisplayName string    `json:"display_name"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Language    string    `json:"language"`
	SourceURL   string    `json:"source_url"`
	IsLive      bool      `json:"is_live"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// StreamState is the mutable per-viewer state paired with a Stream.
type StreamState struct {
	Volume   int     `json:"volume"`
	IsMuted  bool    `json:"is_muted"`
	Quality  Quality `json:"quality"`
	Position int     `json:"position"`
	IsPinned bool    `json:"is_pinned"`
}

// StreamUpdate carries a partial metadata merge; nil fields are left untouched.
type StreamUpdate struct {
	DisplayName *string   `json:"display_name,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Language    *string   `json:"language,omitempty"`
	SourceURL   *string   `json:"source_url,omitempty"`
	IsLive      *bool     `json:"is_live,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	IsPinned    *bool     `json:"is_pinned,omitempty"`
}
