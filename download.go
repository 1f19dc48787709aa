package gdata

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/godata-project/godata/internal/logger"
)

// DownloadProgressFunc reports download progress after each read. total is
// the response's declared content length, or -1 when unknown.
type DownloadProgressFunc func(read, total int64)

// DownloadStream reads a media document from the server without buffering
// it in memory. Cancelling the context passed to Download makes subsequent
// reads fail with a cancellation error.
type DownloadStream struct {
	ctx      context.Context
	body     io.ReadCloser
	progress DownloadProgressFunc

	contentType   string
	contentLength int64
	read          int64
}

// Download opens a streaming GET of uri. Unlike the entry operations, the
// response body is not bounded by the service timeout; the caller's context
// governs the download's lifetime.
func (s *Service) Download(ctx context.Context, domain AuthorizationDomain, uri string, progress DownloadProgressFunc) (*DownloadStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapError(KindCancelled, "download not started", err)
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, mapTransportError(err)
		}
	}

	s.mu.RLock()
	auth := s.authorizer
	locale := s.locale
	s.mu.RUnlock()

	retried := false
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, WrapError(KindProtocol, "building request", err)
		}
		if locale != "" {
			req.Header.Set("Accept-Language", locale)
		}
		if s.apiVersion != "" {
			req.Header.Set("GData-Version", s.apiVersion)
		}
		for k, v := range s.extraHeaders {
			req.Header.Set(k, v)
		}
		if auth != nil {
			auth.ProcessRequest(req, domain)
		}

		start := time.Now()
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, mapTransportError(err)
		}
		logger.Request(http.MethodGet, uri, resp.StatusCode, time.Since(start))

		if resp.StatusCode == http.StatusUnauthorized && !retried {
			if ra, ok := auth.(RefreshableAuthorizer); ok {
				resp.Body.Close()
				if rerr := ra.RefreshAuthorization(ctx); rerr == nil {
					retried = true
					continue
				}
				return nil, NewError(KindAuthenticationRequired, "")
			}
		}
		if !isSuccess(resp.StatusCode) {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
			resp.Body.Close()
			return nil, s.statusError(resp.StatusCode, resp.Header, body)
		}

		return &DownloadStream{
			ctx:           ctx,
			body:          resp.Body,
			progress:      progress,
			contentType:   resp.Header.Get("Content-Type"),
			contentLength: resp.ContentLength,
		}, nil
	}
}

// ContentType returns the media type the server declared for the document.
func (d *DownloadStream) ContentType() string { return d.contentType }

// ContentLength returns the declared document size, or -1 when unknown.
func (d *DownloadStream) ContentLength() int64 { return d.contentLength }

func (d *DownloadStream) Read(p []byte) (int, error) {
	if err := d.ctx.Err(); err != nil {
		return 0, WrapError(KindCancelled, "download cancelled", err)
	}
	n, err := d.body.Read(p)
	if n > 0 {
		d.read += int64(n)
		if d.progress != nil {
			d.progress(d.read, d.contentLength)
		}
	}
	if err != nil && err != io.EOF {
		if d.ctx.Err() != nil {
			return n, WrapError(KindCancelled, "download cancelled", d.ctx.Err())
		}
		return n, WrapError(KindNetwork, "reading download", err)
	}
	return n, err
}

// Close releases the underlying connection. Closing before the document is
// fully read abandons the rest of it.
func (d *DownloadStream) Close() error { return d.body.Close() }
