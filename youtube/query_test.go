package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"

	gdata "github.com/godata-project/godata"
)

func TestVideoQuery_AppendParams(t *testing.T) {
	q := NewVideoQuery("judo")
	q.SetOrderBy(OrderByViewCount)
	q.SetSafeSearch(SafeSearchModerate)
	q.SetFormat(FormatHTTPFlash)
	q.SetRestriction("GB")
	q.SetUploader("partner")
	q.SetLanguage("fr")
	q.SetLicense(LicenseCC)
	q.SetAge(AgeThisWeek)
	q.SetMaxResults(10)

	uri := gdata.BuildQueryURI("http://example.com", q)
	assert.Equal(t, "http://example.com"+
		"?q=judo"+
		"&orderby=viewCount"+
		"&safeSearch=moderate"+
		"&format=5"+
		"&restriction=GB"+
		"&uploader=partner"+
		"&lr=fr"+
		"&license=cc"+
		"&time=this_week"+
		"&max-results=10", uri)
}

func TestVideoQuery_Location(t *testing.T) {
	q := NewVideoQuery("")
	q.SetLocation(37.42307, -122.08427)
	q.SetLocationRadius(100)

	uri := gdata.BuildQueryURI("http://example.com", q)
	assert.Equal(t, "http://example.com"+
		"?location=37.42307%2C-122.08427"+
		"&location-radius=100m", uri)

	latitude, longitude, ok := q.Location()
	assert.True(t, ok)
	assert.Equal(t, 37.42307, latitude)
	assert.Equal(t, -122.08427, longitude)
}

func TestVideoQuery_LocationRequiresGeotag(t *testing.T) {
	q := NewVideoQuery("")
	q.SetLocation(37.42307, -122.08427)
	q.SetRequireLocation(true)

	uri := gdata.BuildQueryURI("http://example.com", q)
	assert.Equal(t, "http://example.com?location=37.42307%2C-122.08427%21", uri)
}

func TestVideoQuery_RequireLocationWithoutCoordinates(t *testing.T) {
	q := NewVideoQuery("")
	q.SetRequireLocation(true)

	uri := gdata.BuildQueryURI("http://example.com", q)
	assert.Equal(t, "http://example.com?location=%21", uri)
}

func TestVideoQuery_LocationOutOfRangeCleared(t *testing.T) {
	q := NewVideoQuery("")
	q.SetLocation(95, 10)

	_, _, ok := q.Location()
	assert.False(t, ok)
	assert.Equal(t, "http://example.com", gdata.BuildQueryURI("http://example.com", q))
}

func TestVideoQuery_AllTimeAgeOmitted(t *testing.T) {
	q := NewVideoQuery("")
	q.SetAge(AgeAllTime)
	assert.Equal(t, "http://example.com", gdata.BuildQueryURI("http://example.com", q))
}

func TestVideoQuery_MutatorsClearETag(t *testing.T) {
	mutations := map[string]func(*VideoQuery){
		"SetOrderBy":         func(q *VideoQuery) { q.SetOrderBy(OrderByRating) },
		"SetSafeSearch":      func(q *VideoQuery) { q.SetSafeSearch(SafeSearchStrict) },
		"SetFormat":          func(q *VideoQuery) { q.SetFormat(FormatRTSPH263) },
		"SetRestriction":     func(q *VideoQuery) { q.SetRestriction("GB") },
		"SetUploader":        func(q *VideoQuery) { q.SetUploader("partner") },
		"SetLocation":        func(q *VideoQuery) { q.SetLocation(1, 2) },
		"SetLocationRadius":  func(q *VideoQuery) { q.SetLocationRadius(50) },
		"SetRequireLocation": func(q *VideoQuery) { q.SetRequireLocation(true) },
		"SetLanguage":        func(q *VideoQuery) { q.SetLanguage("fr") },
		"SetLicense":         func(q *VideoQuery) { q.SetLicense(LicenseStandard) },
		"SetAge":             func(q *VideoQuery) { q.SetAge(AgeToday) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			q := NewVideoQuery("")
			q.SetETag(`"abc"`)
			mutate(q)
			assert.Empty(t, q.ETag())
		})
	}
}
