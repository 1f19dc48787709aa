// Package youtube is the YouTube façade: video feeds, uploads and the
// standard feeds, spoken over the classic Atom protocol.
package youtube

import (
	"context"

	gdata "github.com/godata-project/godata"
)

// Domain is the YouTube authorization domain.
var Domain = gdata.AuthorizationDomain{
	ServiceName: "youtube",
	ScopeRoot:   "https://gdata.youtube.com",
}

// Feed roots. Tests point them at a local server.
const (
	// BaseURI is the root of the video feeds.
	BaseURI = "https://gdata.youtube.com/feeds/api"
	// UploadURI is the resumable upload endpoint for new videos.
	UploadURI = "https://uploads.gdata.youtube.com/resumable/feeds/api/default/uploads"
)

// Standard feed identifiers for QueryStandardFeed.
const (
	StandardTopRated       = "top_rated"
	StandardTopFavorites   = "top_favorites"
	StandardMostViewed     = "most_viewed"
	StandardMostPopular    = "most_popular"
	StandardMostRecent     = "most_recent"
	StandardMostDiscussed  = "most_discussed"
	StandardMostResponded  = "most_responded"
	StandardRecentlyViewed = "recently_featured"
)

// Service is a YouTube client. The YouTube batch endpoint rejects every
// operation, so batches built on this service fail without touching the
// network.
type Service struct {
	*gdata.Service
	baseURI   string
	uploadURI string
}

// NewService creates a YouTube service. developerKey identifies the
// application and is sent on every request; authorizer may be nil for
// read-only access to public feeds.
func NewService(developerKey string, authorizer gdata.Authorizer) *Service {
	return NewServiceWithConfig(developerKey, gdata.ServiceConfig{Authorizer: authorizer})
}

// NewServiceWithConfig creates a YouTube service from cfg. The wire format
// is forced to Atom and the protocol version to 2.
func NewServiceWithConfig(developerKey string, cfg gdata.ServiceConfig) *Service {
	cfg.Wire = gdata.WireAtom
	cfg.APIVersion = "2"
	cfg.ErrorHook = errorHook
	cfg.BatchUnsupported = true
	if cfg.RateLimiter == nil {
		cfg.RateLimiter = gdata.NewRateLimiter(gdata.RateLimitConfig{})
	}
	if developerKey != "" {
		if cfg.ExtraHeaders == nil {
			cfg.ExtraHeaders = make(map[string]string)
		}
		cfg.ExtraHeaders["X-GData-Key"] = "key=" + developerKey
	}
	return &Service{Service: gdata.NewService(cfg), baseURI: BaseURI, uploadURI: UploadURI}
}

// SetBaseURI overrides the feed root. Tests use it to query a local server.
func (s *Service) SetBaseURI(uri string) { s.baseURI = uri }

// SetUploadURI overrides the resumable upload endpoint.
func (s *Service) SetUploadURI(uri string) { s.uploadURI = uri }

// errorHook refines the YouTube error vocabulary onto the error taxonomy.
func errorHook(status int, domain, reason, message string) *gdata.Error {
	switch domain {
	case "yt:service":
		switch reason {
		case "youtube_signup_required":
			return gdata.NewError(gdata.KindChannelRequired, "a YouTube channel is required")
		case "disabled_in_maintenance_mode":
			return gdata.NewError(gdata.KindUnavailable, "YouTube is in maintenance mode")
		}
	case "yt:quota":
		switch reason {
		case "too_many_recent_calls":
			return gdata.NewError(gdata.KindAPIQuotaExceeded, message)
		case "too_many_entries":
			return gdata.NewError(gdata.KindEntryQuotaExceeded, message)
		}
	case "yt:authentication":
		switch reason {
		case "TokenExpired", "InvalidToken":
			return gdata.NewError(gdata.KindAuthenticationRequired, message)
		}
	}
	return nil
}

func videoFactory() gdata.EntryLike { return &Video{} }

// QueryVideos searches the public video index; q may be nil.
func (s *Service) QueryVideos(ctx context.Context, q *VideoQuery) (*gdata.Feed, error) {
	return s.query(ctx, s.baseURI+"/videos", q)
}

// QueryStandardFeed fetches one of the site-wide standard feeds, such as
// StandardMostPopular.
func (s *Service) QueryStandardFeed(ctx context.Context, feed string, q *VideoQuery) (*gdata.Feed, error) {
	return s.query(ctx, s.baseURI+"/standardfeeds/"+feed, q)
}

// QueryRelatedVideos lists videos related to video.
func (s *Service) QueryRelatedVideos(ctx context.Context, video *Video, q *VideoQuery) (*gdata.Feed, error) {
	link := video.LookupLink(RelRelated)
	if link == nil {
		return nil, gdata.NewError(gdata.KindProtocol, "video carries no related-videos link")
	}
	return s.query(ctx, link.Href, q)
}

// QueryUserUploads lists the videos uploaded by username; "default" names
// the authenticated user.
func (s *Service) QueryUserUploads(ctx context.Context, username string, q *VideoQuery) (*gdata.Feed, error) {
	if username == "" {
		username = "default"
	}
	return s.query(ctx, s.baseURI+"/users/"+username+"/uploads", q)
}

func (s *Service) query(ctx context.Context, uri string, q *VideoQuery) (*gdata.Feed, error) {
	var queryable gdata.Queryable
	if q != nil {
		queryable = q
	}
	return s.Query(ctx, Domain, uri, queryable, videoFactory)
}

// GetVideo fetches a single video entry by its entry URI.
func (s *Service) GetVideo(ctx context.Context, entryURI string) (*Video, error) {
	entry, err := s.QuerySingle(ctx, Domain, entryURI, videoFactory)
	if err != nil {
		return nil, err
	}
	return entry.(*Video), nil
}

// UploadVideo starts a resumable upload of a new video. video carries the
// metadata, slug the file name, contentType the media type and
// contentLength the file size or -1. The returned stream's FinishUpload
// yields the inserted video entry.
func (s *Service) UploadVideo(ctx context.Context, video *Video, slug, contentType string, contentLength int64, progress gdata.UploadProgressFunc) (*gdata.UploadStream, error) {
	return s.UploadEntry(ctx, Domain, s.uploadURI, slug, contentType, contentLength, video, progress)
}
