package youtube

import (
	"bytes"
	"encoding/xml"
	"sort"
	"strconv"
	"strings"
	"time"

	gdata "github.com/godata-project/godata"
)

// Link relations specific to YouTube entries.
const (
	// RelRelated points at a video's related-videos feed.
	RelRelated = gdata.NSYouTube + "#video.related"
	// RelResponses points at a video's video-responses feed.
	RelResponses = gdata.NSYouTube + "#video.responses"
)

// CategorySchemeKeywords is the scheme of free-form keyword categories.
const CategorySchemeKeywords = "http://gdata.youtube.com/schemas/2007/keywords.cat"

// CategorySchemeCategories is the scheme of the fixed category vocabulary.
const CategorySchemeCategories = "http://gdata.youtube.com/schemas/2007/categories.cat"

// Thumbnail is one preview image of a video.
type Thumbnail struct {
	URL    string
	Width  int
	Height int
	// Time is the video offset the frame was taken at.
	Time time.Duration
}

// Rating aggregates user ratings of a video.
type Rating struct {
	Min       int
	Max       int
	NumRaters int
	Average   float64
}

// State describes why an uploaded video is not playable: still processing,
// rejected, or failed.
type State struct {
	Name    string
	Reason  string
	HelpURI string
	Message string
}

// Video is a YouTube video entry. The entry title doubles as the media
// title; setting one sets the other on serialization.
type Video struct {
	gdata.Entry

	// VideoID is the short YouTube video identifier.
	VideoID string
	// Description is the long video description.
	Description string
	// Keywords are the free-form tags.
	Keywords []string
	// Category is the term from the fixed category vocabulary.
	Category string
	// Duration is the playing time.
	Duration time.Duration
	// Private hides the video from the public index.
	Private bool
	// PlayerURI is the browser playback page.
	PlayerURI string
	// Thumbnails are the preview images, smallest first as served.
	Thumbnails []Thumbnail

	// ViewCount and FavoriteCount are the public statistics.
	ViewCount     uint64
	FavoriteCount uint64
	// Rating aggregates user ratings; zero when the video has none.
	Rating Rating

	// AccessControls maps actions ("comment", "rate", "embed") onto their
	// permission ("allowed", "denied", "moderated").
	AccessControls map[string]string

	// Latitude and Longitude are the recording coordinates; valid only when
	// HasCoordinates is set.
	HasCoordinates bool
	Latitude       float64
	Longitude      float64

	// Recorded is the day the video was recorded, at midnight UTC.
	Recorded time.Time

	// UploadState is non-nil while the video is processing or rejected.
	UploadState *State
}

// NewVideo builds a local video with the given title.
func NewVideo(title string) *Video {
	v := &Video{}
	v.Title = title
	return v
}

// SetAccessControl sets the permission for one action.
func (v *Video) SetAccessControl(action, permission string) {
	if v.AccessControls == nil {
		v.AccessControls = make(map[string]string)
	}
	v.AccessControls[action] = permission
}

// SetCoordinates records where the video was shot.
func (v *Video) SetCoordinates(latitude, longitude float64) {
	v.HasCoordinates = true
	v.Latitude = latitude
	v.Longitude = longitude
}

// ParseXMLElement handles the YouTube extensions and delegates the Atom
// elements to the common entry.
func (v *Video) ParseXMLElement(d *xml.Decoder, start xml.StartElement) (bool, error) {
	switch start.Name.Space {
	case gdata.NSMedia:
		if start.Name.Local == "group" {
			return true, v.parseMediaGroup(d)
		}
	case gdata.NSYouTube:
		switch start.Name.Local {
		case "statistics":
			v.ViewCount = parseUint(gdata.AttrValue(start.Attr, "viewCount"))
			v.FavoriteCount = parseUint(gdata.AttrValue(start.Attr, "favoriteCount"))
			return true, skipElement(d)
		case "accessControl":
			v.SetAccessControl(gdata.AttrValue(start.Attr, "action"), gdata.AttrValue(start.Attr, "permission"))
			return true, skipElement(d)
		case "recorded":
			var s string
			if _, err := gdata.ParseStringElement(d, start, gdata.NSYouTube, "recorded", gdata.ParseNonEmpty, &s); err != nil {
				return true, err
			}
			t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
			if err != nil {
				return true, gdata.NewError(gdata.KindProtocol, "invalid <yt:recorded> value")
			}
			v.Recorded = t
			return true, nil
		}
	case gdata.NSGData:
		if start.Name.Local == "rating" {
			v.Rating = Rating{
				Min:       atoi(gdata.AttrValue(start.Attr, "min")),
				Max:       atoi(gdata.AttrValue(start.Attr, "max")),
				NumRaters: atoi(gdata.AttrValue(start.Attr, "numRaters")),
			}
			v.Rating.Average, _ = strconv.ParseFloat(gdata.AttrValue(start.Attr, "average"), 64)
			return true, skipElement(d)
		}
	case gdata.NSGeoRSS:
		if start.Name.Local == "where" {
			return true, v.parseWhere(d, start)
		}
	case gdata.NSApp:
		if start.Name.Local == "control" {
			return true, v.parseControl(d)
		}
	}
	return v.Entry.ParseXMLElement(d, start)
}

// parseMediaGroup reads the children of <media:group>.
func (v *Video) parseMediaGroup(d *xml.Decoder) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return gdata.WrapError(gdata.KindProtocol, "malformed <media:group>", err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			if err := v.parseMediaGroupChild(d, t); err != nil {
				return err
			}
		}
	}
}

func (v *Video) parseMediaGroupChild(d *xml.Decoder, start xml.StartElement) error {
	switch start.Name.Space {
	case gdata.NSMedia:
		switch start.Name.Local {
		case "title":
			_, err := gdata.ParseStringElement(d, start, gdata.NSMedia, "title", gdata.ParseNone, &v.Title)
			return err
		case "description":
			_, err := gdata.ParseStringElement(d, start, gdata.NSMedia, "description", gdata.ParseNone, &v.Description)
			return err
		case "keywords":
			var s string
			if _, err := gdata.ParseStringElement(d, start, gdata.NSMedia, "keywords", gdata.ParseNone, &s); err != nil {
				return err
			}
			for _, kw := range strings.Split(s, ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					v.Keywords = append(v.Keywords, kw)
				}
			}
			return nil
		case "category":
			if gdata.AttrValue(start.Attr, "scheme") != CategorySchemeKeywords {
				var s string
				if _, err := gdata.ParseStringElement(d, start, gdata.NSMedia, "category", gdata.ParseNone, &s); err != nil {
					return err
				}
				v.Category = s
				return nil
			}
			return skipElement(d)
		case "thumbnail":
			offset, _ := time.Parse("15:04:05", gdata.AttrValue(start.Attr, "time"))
			v.Thumbnails = append(v.Thumbnails, Thumbnail{
				URL:    gdata.AttrValue(start.Attr, "url"),
				Width:  atoi(gdata.AttrValue(start.Attr, "width")),
				Height: atoi(gdata.AttrValue(start.Attr, "height")),
				Time: time.Duration(offset.Hour())*time.Hour +
					time.Duration(offset.Minute())*time.Minute +
					time.Duration(offset.Second())*time.Second,
			})
			return skipElement(d)
		case "player":
			v.PlayerURI = gdata.AttrValue(start.Attr, "url")
			return skipElement(d)
		}
	case gdata.NSYouTube:
		switch start.Name.Local {
		case "videoid":
			_, err := gdata.ParseStringElement(d, start, gdata.NSYouTube, "videoid", gdata.ParseNoDupes, &v.VideoID)
			return err
		case "duration":
			v.Duration = time.Duration(atoi(gdata.AttrValue(start.Attr, "seconds"))) * time.Second
			return skipElement(d)
		case "private":
			v.Private = true
			return skipElement(d)
		}
	}
	return skipElement(d)
}

// parseWhere reads the recording coordinates out of the GML nesting
// <georss:where><gml:Point><gml:pos>lat lon</gml:pos></gml:Point></georss:where>.
func (v *Video) parseWhere(d *xml.Decoder, start xml.StartElement) error {
	var where struct {
		Pos string `xml:"Point>pos"`
	}
	if err := d.DecodeElement(&where, &start); err != nil {
		return gdata.WrapError(gdata.KindProtocol, "malformed <georss:where>", err)
	}
	fields := strings.Fields(where.Pos)
	if len(fields) != 2 {
		return nil
	}
	lat, err1 := strconv.ParseFloat(fields[0], 64)
	lon, err2 := strconv.ParseFloat(fields[1], 64)
	if err1 != nil || err2 != nil {
		return gdata.NewError(gdata.KindProtocol, "invalid <gml:pos> value")
	}
	v.SetCoordinates(lat, lon)
	return nil
}

// parseControl reads the APP control block carrying the upload state.
func (v *Video) parseControl(d *xml.Decoder) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return gdata.WrapError(gdata.KindProtocol, "malformed <app:control>", err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			if t.Name.Space == gdata.NSYouTube && t.Name.Local == "state" {
				state := &State{
					Name:    gdata.AttrValue(t.Attr, "name"),
					Reason:  gdata.AttrValue(t.Attr, "reasonCode"),
					HelpURI: gdata.AttrValue(t.Attr, "helpUrl"),
				}
				if _, err := gdata.ParseStringElement(d, t, gdata.NSYouTube, "state", gdata.ParseNone, &state.Message); err != nil {
					return err
				}
				v.UploadState = state
				continue
			}
			if err := skipElement(d); err != nil {
				return err
			}
		}
	}
}

// XMLContent writes the Atom elements followed by the upload metadata the
// server accepts: the media group, access controls and coordinates.
// Server-maintained elements (statistics, ratings, state) are not emitted.
func (v *Video) XMLContent(w *bytes.Buffer, reg *gdata.NamespaceRegistry) {
	v.Entry.XMLContent(w, reg)

	reg.Register("media", gdata.NSMedia)
	reg.Register("yt", gdata.NSYouTube)
	w.WriteString("<media:group>")
	if v.Title != "" {
		w.WriteString(`<media:title type="plain">` + gdata.EscapeXML(v.Title) + "</media:title>")
	}
	if v.Description != "" {
		w.WriteString(`<media:description type="plain">` + gdata.EscapeXML(v.Description) + "</media:description>")
	}
	if len(v.Keywords) > 0 {
		w.WriteString("<media:keywords>" + gdata.EscapeXML(strings.Join(v.Keywords, ", ")) + "</media:keywords>")
	}
	if v.Category != "" {
		w.WriteString(`<media:category scheme="` + CategorySchemeCategories + `">` + gdata.EscapeXML(v.Category) + "</media:category>")
	}
	if v.Private {
		w.WriteString("<yt:private/>")
	}
	w.WriteString("</media:group>")

	for _, action := range sortedActions(v.AccessControls) {
		w.WriteString(`<yt:accessControl action="` + gdata.EscapeXML(action) +
			`" permission="` + gdata.EscapeXML(v.AccessControls[action]) + `"/>`)
	}

	if v.HasCoordinates {
		reg.Register("georss", gdata.NSGeoRSS)
		reg.Register("gml", gdata.NSGML)
		w.WriteString("<georss:where><gml:Point><gml:pos>" +
			strconv.FormatFloat(v.Latitude, 'f', -1, 64) + " " +
			strconv.FormatFloat(v.Longitude, 'f', -1, 64) +
			"</gml:pos></gml:Point></georss:where>")
	}
	if !v.Recorded.IsZero() {
		w.WriteString("<yt:recorded>" + v.Recorded.UTC().Format("2006-01-02") + "</yt:recorded>")
	}
}

func sortedActions(controls map[string]string) []string {
	actions := make([]string, 0, len(controls))
	for action := range controls {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseUint(s string) uint64 {
	n, _ := strconv.ParseUint(s, 10, 64)
	return n
}

func skipElement(d *xml.Decoder) error {
	if err := d.Skip(); err != nil {
		return gdata.WrapError(gdata.KindProtocol, "malformed XML", err)
	}
	return nil
}
