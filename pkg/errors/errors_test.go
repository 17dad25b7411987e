package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"gridcast/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDomain_Mapping(t *testing.T) {
	tests := []struct {
		err        error
		wantCode   ErrorCode
		wantStatus int
	}{
		{domain.ErrInvalidArgument, ErrCodeInvalidInput, http.StatusBadRequest},
		{domain.ErrStreamNotFound, ErrCodeNotFound, http.StatusNotFound},
		{domain.ErrSegmentNotFound, ErrCodeNotFound, http.StatusNotFound},
		{domain.ErrCapacityExceeded, ErrCodeCapacityExceeded, http.StatusConflict},
		{domain.ErrIndexOutOfRange, ErrCodeIndexOutOfRange, http.StatusBadRequest},
		{domain.ErrNoActiveStreams, ErrCodeNoActiveStreams, http.StatusPreconditionFailed},
		{domain.ErrStorageExceeded, ErrCodeStorageExceeded, http.StatusInsufficientStorage},
		{domain.ErrRecorderBusy, ErrCodeConflict, http.StatusConflict},
		{errors.New("boom"), ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.wantCode)+"/"+tt.err.Error(), func(t *testing.T) {
			appErr := FromDomain(tt.err)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.HTTPStatus)
		})
	}
}

func TestFromDomain_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("adding stream: %w", domain.ErrCapacityExceeded)
	appErr := FromDomain(err)
	assert.Equal(t, ErrCodeCapacityExceeded, appErr.Code)
	assert.ErrorIs(t, appErr, domain.ErrCapacityExceeded)
}

func TestGetAppError(t *testing.T) {
	inner := NewInvalidInput("bad volume")
	wrapped := fmt.Errorf("handler: %w", inner)

	got := GetAppError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, ErrCodeInvalidInput, got.Code)

	assert.Nil(t, GetAppError(errors.New("plain")))
}
