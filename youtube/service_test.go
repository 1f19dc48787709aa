package youtube

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gdata "github.com/godata-project/godata"
)

const videoFeedXML = `<feed xmlns="http://www.w3.org/2005/Atom"
	xmlns:media="http://search.yahoo.com/mrss/"
	xmlns:yt="http://gdata.youtube.com/schemas/2007">
	<title>Videos matching: judo</title>
	<entry>
		<id>tag:youtube.com,2008:video:JAagedeKdcQ</id>
		<title>Judo dog</title>
		<media:group>
			<yt:videoid>JAagedeKdcQ</yt:videoid>
		</media:group>
	</entry>
</feed>`

func TestService_QueryVideos(t *testing.T) {
	var gotHeader http.Header
	var gotURI string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		gotURI = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(videoFeedXML))
	}))
	defer server.Close()

	svc := NewService("dev-key-123", nil)
	svc.SetBaseURI(server.URL)

	q := NewVideoQuery("judo")
	q.SetOrderBy(OrderByViewCount)
	q.SetSafeSearch(SafeSearchModerate)
	q.SetMaxResults(10)

	feed, err := svc.QueryVideos(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, "key=dev-key-123", gotHeader.Get("X-GData-Key"))
	assert.Equal(t, "2", gotHeader.Get("GData-Version"))
	assert.Equal(t, "/videos?q=judo&orderby=viewCount&safeSearch=moderate&max-results=10", gotURI)

	require.Len(t, feed.Entries, 1)
	assert.Equal(t, "JAagedeKdcQ", feed.Entries[0].(*Video).VideoID)
}

func TestService_QueryStandardFeed(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(videoFeedXML))
	}))
	defer server.Close()

	svc := NewService("", nil)
	svc.SetBaseURI(server.URL)

	_, err := svc.QueryStandardFeed(context.Background(), StandardMostPopular, nil)
	require.NoError(t, err)
	assert.Equal(t, "/standardfeeds/most_popular", gotPath)
}

func TestService_QueryUserUploads(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(videoFeedXML))
	}))
	defer server.Close()

	svc := NewService("", nil)
	svc.SetBaseURI(server.URL)

	_, err := svc.QueryUserUploads(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "/users/default/uploads", gotPath)
}

func TestService_QueryRelatedVideos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(videoFeedXML))
	}))
	defer server.Close()

	video := &Video{}
	video.Links = []gdata.Link{{Rel: RelRelated, Href: server.URL + "/videos/JAagedeKdcQ/related"}}

	svc := NewService("", nil)
	_, err := svc.QueryRelatedVideos(context.Background(), video, nil)
	require.NoError(t, err)

	_, err = svc.QueryRelatedVideos(context.Background(), &Video{}, nil)
	assert.ErrorIs(t, err, gdata.ErrProtocol)
}

func TestService_QuotaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.google.gdata.error+xml")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<errors xmlns="http://schemas.google.com/g/2005">
			<error><domain>yt:quota</domain><code>too_many_recent_calls</code></error>
		</errors>`))
	}))
	defer server.Close()

	svc := NewService("", nil)
	svc.SetBaseURI(server.URL)

	_, err := svc.QueryVideos(context.Background(), nil)
	assert.True(t, gdata.IsQuotaExceeded(err))
	assert.ErrorIs(t, err, gdata.ErrAPIQuotaExceeded)
}

func TestService_ChannelRequiredError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<errors xmlns="http://schemas.google.com/g/2005">
			<error><domain>yt:service</domain><code>youtube_signup_required</code></error>
		</errors>`))
	}))
	defer server.Close()

	svc := NewService("", nil)
	svc.SetBaseURI(server.URL)

	_, err := svc.QueryVideos(context.Background(), nil)
	assert.ErrorIs(t, err, gdata.ErrChannelRequired)
}

func TestService_BatchAlwaysRejected(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	svc := NewService("", nil)
	batch := svc.NewBatch(Domain, server.URL+"/batch")
	id := batch.AddQuery(server.URL+"/videos/JAagedeKdcQ", videoFactory)

	err := batch.Run(context.Background())
	assert.ErrorIs(t, err, gdata.ErrWithBatchOperation)
	assert.Zero(t, requests.Load())

	result, err := batch.Result(id)
	assert.Nil(t, result)
	assert.NoError(t, err)
}

func TestService_UploadVideo(t *testing.T) {
	var gotSlug string
	var gotMetadata, gotMedia []byte
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/uploads", func(w http.ResponseWriter, r *http.Request) {
		gotSlug = r.Header.Get("Slug")
		gotMetadata, _ = io.ReadAll(r.Body)
		w.Header().Set("Location", server.URL+"/session")
	})
	mux.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		gotMedia, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`<entry xmlns="http://www.w3.org/2005/Atom"
			xmlns:media="http://search.yahoo.com/mrss/"
			xmlns:yt="http://gdata.youtube.com/schemas/2007">
			<id>tag:youtube.com,2008:video:newvid</id>
			<title>Judo dog</title>
			<media:group><yt:videoid>newvid</yt:videoid></media:group>
		</entry>`))
	})

	svc := NewService("dev-key-123", nil)
	svc.SetUploadURI(server.URL + "/uploads")

	video := NewVideo("Judo dog")
	video.Category = "Sports"

	stream, err := svc.UploadVideo(context.Background(), video, "judo-dog.mp4", "video/mp4", 9, nil)
	require.NoError(t, err)
	_, err = stream.Write([]byte("fake mp4!"))
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	assert.Equal(t, "judo-dog.mp4", gotSlug)
	assert.Contains(t, string(gotMetadata), "<media:title type=\"plain\">Judo dog</media:title>")
	assert.Equal(t, "fake mp4!", string(gotMedia))

	entry, err := stream.FinishUpload(videoFactory)
	require.NoError(t, err)
	inserted := entry.(*Video)
	assert.Equal(t, "newvid", inserted.VideoID)
	assert.Equal(t, video.Title, inserted.Title)
	assert.True(t, inserted.IsInserted())
}
