package gdata

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/api/googleapi"
)

func TestError_MatchesSentinel(t *testing.T) {
	tests := []struct {
		name     string
		kind     ErrorKind
		sentinel error
	}{
		{"protocol", KindProtocol, ErrProtocol},
		{"authentication required", KindAuthenticationRequired, ErrAuthenticationRequired},
		{"bad authentication", KindBadAuthentication, ErrBadAuthentication},
		{"account deleted", KindAccountDeleted, ErrAccountDeleted},
		{"forbidden", KindForbidden, ErrForbidden},
		{"api quota", KindAPIQuotaExceeded, ErrAPIQuotaExceeded},
		{"entry quota", KindEntryQuotaExceeded, ErrEntryQuotaExceeded},
		{"channel required", KindChannelRequired, ErrChannelRequired},
		{"not found", KindNotFound, ErrNotFound},
		{"conflict", KindConflict, ErrConflict},
		{"unavailable", KindUnavailable, ErrUnavailable},
		{"network", KindNetwork, ErrNetwork},
		{"cancelled", KindCancelled, ErrCancelled},
		{"batch", KindWithBatchOperation, ErrWithBatchOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError(tt.kind, "details")
			assert.ErrorIs(t, err, tt.sentinel)
			// An error matches its own sentinel and nothing else.
			assert.NotErrorIs(t, err, ErrNotModified)
			if tt.sentinel != ErrProtocol {
				assert.NotErrorIs(t, err, ErrProtocol)
			}
		})
	}
}

func TestError_MatchesThroughWrapping(t *testing.T) {
	inner := NewError(KindNotFound, "no such calendar")
	wrapped := fmt.Errorf("fetching calendar: %w", inner)

	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
}

func TestError_Message(t *testing.T) {
	err := NewError(KindConflict, "etag mismatch")
	assert.Equal(t, "gdata: conflict: etag mismatch", err.Error())

	bare := NewError(KindConflict, "")
	assert.Equal(t, "gdata: conflict", bare.Error())
}

func TestWrapError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError(KindNetwork, "request failed", cause)

	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, cause)
}

func TestIsQuotaExceeded(t *testing.T) {
	assert.True(t, IsQuotaExceeded(NewError(KindAPIQuotaExceeded, "")))
	assert.True(t, IsQuotaExceeded(NewError(KindEntryQuotaExceeded, "")))
	assert.False(t, IsQuotaExceeded(NewError(KindForbidden, "")))
	assert.False(t, IsQuotaExceeded(nil))
}

func TestFromGoogleAPIError(t *testing.T) {
	tests := []struct {
		code     int
		sentinel error
	}{
		{401, ErrAuthenticationRequired},
		{403, ErrForbidden},
		{404, ErrNotFound},
		{409, ErrConflict},
		{412, ErrConflict},
		{429, ErrAPIQuotaExceeded},
		{500, ErrUnavailable},
		{503, ErrUnavailable},
		{418, ErrProtocol},
	}
	for _, tt := range tests {
		gerr := &googleapi.Error{Code: tt.code, Message: "boom"}
		err := FromGoogleAPIError(gerr)
		require.NotNil(t, err)
		assert.ErrorIs(t, err, tt.sentinel, "status %d", tt.code)

		// The original googleapi error stays reachable for errors.As.
		var unwrapped *googleapi.Error
		assert.True(t, errors.As(err, &unwrapped))
	}
}

func TestFromGoogleAPIError_Reason(t *testing.T) {
	gerr := &googleapi.Error{
		Code:    403,
		Message: "limit",
		Errors:  []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}},
	}
	err := FromGoogleAPIError(gerr)
	assert.Equal(t, "rateLimitExceeded", err.Domain)
}
