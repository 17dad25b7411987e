package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxChannelNameLen = 64
	maxDisplayNameLen = 120
	maxTagCount       = 10
	maxTagLen         = 30
)

// ChannelNameRegex validates channel name format
var ChannelNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// ValidateChannelName validates a platform channel name.
func ValidateChannelName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("channel name is required")
	}
	if utf8.RuneCountInString(name) > maxChannelNameLen {
		return fmt.Errorf("channel name is too long (max %d characters)", maxChannelNameLen)
	}
	if !ChannelNameRegex.MatchString(name) {
		return fmt.Errorf("invalid channel name format")
	}
	return nil
}

// ValidateDisplayName validates an optional human-readable name.
func ValidateDisplayName(name string) error {
	if name == "" {
		return nil
	}
	if utf8.RuneCountInString(name) > maxDisplayNameLen {
		return fmt.Errorf("display name is too long (max %d characters)", maxDisplayNameLen)
	}
	return nil
}

// ValidateSourceURL validates the resolvable address handed to the player.
func ValidateSourceURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("source url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid source url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("source url must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("source url must have a host")
	}
	return nil
}

// ValidateTags validates the bounded tag sequence.
func ValidateTags(tags []string) error {
	if len(tags) > maxTagCount {
		return fmt.Errorf("too many tags (max %d)", maxTagCount)
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("tags must not be empty")
		}
		if utf8.RuneCountInString(tag) > maxTagLen {
			return fmt.Errorf("tag %q is too long (max %d characters)", tag, maxTagLen)
		}
	}
	return nil
}
