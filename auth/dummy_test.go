package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDummyAuthorizer(t *testing.T) {
	a := NewDummyAuthorizer(calendarDomain)

	assert.True(t, a.IsAuthorizedForDomain(calendarDomain))
	assert.False(t, a.IsAuthorizedForDomain(youtubeDomain))

	req := httptest.NewRequest(http.MethodGet, "https://www.google.com/calendar/feeds/default", nil)
	a.ProcessRequest(req, calendarDomain)
	assert.Equal(t, "dummy", req.Header.Get("Authorization"))

	req = httptest.NewRequest(http.MethodGet, "https://gdata.youtube.com/feeds/api/videos", nil)
	a.ProcessRequest(req, youtubeDomain)
	assert.Empty(t, req.Header.Get("Authorization"))
}
