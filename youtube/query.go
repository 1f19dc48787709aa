package youtube

import (
	"strconv"

	gdata "github.com/godata-project/godata"
)

// Result orderings for VideoQuery.SetOrderBy.
const (
	OrderByRelevance = "relevance"
	OrderByPublished = "published"
	OrderByViewCount = "viewCount"
	OrderByRating    = "rating"
)

// Safe-search levels for VideoQuery.SetSafeSearch.
const (
	SafeSearchNone     = "none"
	SafeSearchModerate = "moderate"
	SafeSearchStrict   = "strict"
)

// Playback formats for VideoQuery.SetFormat.
const (
	// FormatRTSPH263 is RTSP streaming with H.263 video.
	FormatRTSPH263 = 1
	// FormatHTTPFlash is HTTP playback of embedded Flash players.
	FormatHTTPFlash = 5
	// FormatRTSPMPEG4 is RTSP streaming with MPEG-4 video.
	FormatRTSPMPEG4 = 6
)

// Content licenses for VideoQuery.SetLicense.
const (
	LicenseCC       = "cc"
	LicenseStandard = "youtube"
)

// Upload-age windows for VideoQuery.SetAge.
const (
	AgeAllTime   = "all_time"
	AgeToday     = "today"
	AgeThisWeek  = "this_week"
	AgeThisMonth = "this_month"
)

// VideoQuery filters video queries.
type VideoQuery struct {
	gdata.Query

	orderBy         string
	safeSearch      string
	format          int
	restriction     string
	uploader        string
	latitude        float64
	longitude       float64
	hasCoords       bool
	locationRadius  float64
	requireLocation bool
	language        string
	license         string
	age             string
}

// NewVideoQuery returns a video query with the search term set; q may be
// empty.
func NewVideoQuery(q string) *VideoQuery {
	vq := &VideoQuery{}
	vq.SetQ(q)
	return vq
}

// OrderBy returns the result ordering.
func (q *VideoQuery) OrderBy() string { return q.orderBy }

// SetOrderBy orders results by one of the OrderBy constants.
func (q *VideoQuery) SetOrderBy(v string) { q.orderBy = v; q.ClearETag() }

// SafeSearch returns the content filtering level.
func (q *VideoQuery) SafeSearch() string { return q.safeSearch }

// SetSafeSearch sets the content filtering level.
func (q *VideoQuery) SetSafeSearch(v string) { q.safeSearch = v; q.ClearETag() }

// Format returns the required playback format, or 0.
func (q *VideoQuery) Format() int { return q.format }

// SetFormat keeps only videos playable in the given Format constant.
func (q *VideoQuery) SetFormat(v int) { q.format = v; q.ClearETag() }

// Restriction returns the playability country restriction.
func (q *VideoQuery) Restriction() string { return q.restriction }

// SetRestriction keeps only videos playable in the given country (a
// two-letter code) or from the given IP address.
func (q *VideoQuery) SetRestriction(v string) { q.restriction = v; q.ClearETag() }

// Uploader returns the uploader filter.
func (q *VideoQuery) Uploader() string { return q.uploader }

// SetUploader keeps only videos from the given uploader type; the only
// recognized value is "partner".
func (q *VideoQuery) SetUploader(v string) { q.uploader = v; q.ClearETag() }

// Location returns the search centre coordinates; ok is false when no
// location is set.
func (q *VideoQuery) Location() (latitude, longitude float64, ok bool) {
	return q.latitude, q.longitude, q.hasCoords
}

// SetLocation centres the search on the given coordinates. Latitude runs
// from -90 to 90 degrees and longitude from -180 to 180; values outside
// those ranges clear the location.
func (q *VideoQuery) SetLocation(latitude, longitude float64) {
	q.latitude, q.longitude = latitude, longitude
	q.hasCoords = latitude >= -90 && latitude <= 90 && longitude >= -180 && longitude <= 180
	q.ClearETag()
}

// LocationRadius returns the search radius in metres, or 0.
func (q *VideoQuery) LocationRadius() float64 { return q.locationRadius }

// SetLocationRadius searches within a circle of the given radius in metres
// around the location; 0 searches for the exact coordinates.
func (q *VideoQuery) SetLocationRadius(metres float64) { q.locationRadius = metres; q.ClearETag() }

// RequireLocation reports whether only geotagged videos are returned.
func (q *VideoQuery) RequireLocation() bool { return q.requireLocation }

// SetRequireLocation restricts results to videos carrying a geotag. It can
// be set without coordinates to return any geotagged video.
func (q *VideoQuery) SetRequireLocation(v bool) { q.requireLocation = v; q.ClearETag() }

// Language returns the result language filter.
func (q *VideoQuery) Language() string { return q.language }

// SetLanguage keeps only videos whose title, description or keywords are in
// the given language (an ISO 639-1 code).
func (q *VideoQuery) SetLanguage(v string) { q.language = v; q.ClearETag() }

// License returns the content license filter.
func (q *VideoQuery) License() string { return q.license }

// SetLicense keeps only videos under the given License constant.
func (q *VideoQuery) SetLicense(v string) { q.license = v; q.ClearETag() }

// Age returns the upload-age window.
func (q *VideoQuery) Age() string { return q.age }

// SetAge keeps only videos uploaded within the given Age constant's window.
func (q *VideoQuery) SetAge(v string) { q.age = v; q.ClearETag() }

// AppendParams renders the video parameters after the common ones.
func (q *VideoQuery) AppendParams(w *gdata.ParamWriter) {
	q.AppendCommonParams(w)
	if q.orderBy != "" {
		w.AddEscaped("orderby", q.orderBy)
	}
	if q.safeSearch != "" {
		w.AddEscaped("safeSearch", q.safeSearch)
	}
	if q.format > 0 {
		w.AddInt("format", q.format)
	}
	if q.restriction != "" {
		w.AddEscaped("restriction", q.restriction)
	}
	if q.uploader != "" {
		w.AddEscaped("uploader", q.uploader)
	}
	switch {
	case q.hasCoords:
		// A trailing "!" asks for geotagged videos only.
		location := formatCoordinate(q.latitude) + "," + formatCoordinate(q.longitude)
		if q.requireLocation {
			location += "!"
		}
		w.AddEscaped("location", location)
		if q.locationRadius > 0 {
			w.Add("location-radius", formatCoordinate(q.locationRadius)+"m")
		}
	case q.requireLocation:
		w.AddEscaped("location", "!")
	}
	if q.language != "" {
		w.AddEscaped("lr", q.language)
	}
	if q.license != "" {
		w.AddEscaped("license", q.license)
	}
	if q.age != "" && q.age != AgeAllTime {
		w.Add("time", q.age)
	}
	q.AppendPaginationParams(w)
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
