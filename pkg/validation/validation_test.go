package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateChannelName(t *testing.T) {
	assert.NoError(t, ValidateChannelName("some_channel-01"))
	assert.Error(t, ValidateChannelName(""))
	assert.Error(t, ValidateChannelName("has spaces"))
	assert.Error(t, ValidateChannelName(strings.Repeat("a", 65)))
}

func TestValidateDisplayName(t *testing.T) {
	assert.NoError(t, ValidateDisplayName(""))
	assert.NoError(t, ValidateDisplayName("Some Streamer"))
	assert.Error(t, ValidateDisplayName(strings.Repeat("x", 121)))
}

func TestValidateSourceURL(t *testing.T) {
	assert.NoError(t, ValidateSourceURL("https://example.com/embed/chan"))
	assert.Error(t, ValidateSourceURL(""))
	assert.Error(t, ValidateSourceURL("ftp://example.com/x"))
	assert.Error(t, ValidateSourceURL("https://"))
}

func TestValidateTags(t *testing.T) {
	assert.NoError(t, ValidateTags(nil))
	assert.NoError(t, ValidateTags([]string{"fps", "english"}))
	assert.Error(t, ValidateTags([]string{""}))
	assert.Error(t, ValidateTags([]string{strings.Repeat("t", 31)}))

	many := make([]string, 11)
	for i := range many {
		many[i] = "tag"
	}
	assert.Error(t, ValidateTags(many))
}
