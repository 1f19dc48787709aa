package gdata

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"
)

// MaxResumableChunkSize is the largest block sent in one resumable upload
// request. The resumable protocol requires chunk sizes to be multiples of
// 256 KiB except for the final chunk.
const MaxResumableChunkSize = 512 * 1024

// UploadProgressFunc reports resumable upload progress after each committed
// chunk. total is the declared content length, or -1 when unknown.
type UploadProgressFunc func(written, total int64)

// uploadRetries is the number of attempts made per chunk before the upload
// is abandoned. Only transient failures (5xx, network) are retried.
const uploadRetries = 3

// UploadStream writes a media document to a resumable upload session. Bytes
// written are buffered and sent in MaxResumableChunkSize blocks; Close
// flushes the final block and completes the session. After Close (even a
// failed one), FinishUpload returns the server's entry for the uploaded
// media.
type UploadStream struct {
	svc         *Service
	domain      AuthorizationDomain
	ctx         context.Context
	sessionURI  string
	contentType string
	total       int64
	progress    UploadProgressFunc

	buf       bytes.Buffer
	offset    int64
	closed    bool
	uploadErr error
	finalBody []byte
}

// UploadEntry starts a resumable upload session against uploadURI (a feed's
// resumable-create-media link) and returns a stream to write the media to.
// slug names the document; contentType is the media type of the bytes;
// contentLength is the total size, or -1 when unknown. entry, when non-nil,
// supplies the metadata half of the upload.
func (s *Service) UploadEntry(ctx context.Context, domain AuthorizationDomain, uploadURI, slug, contentType string, contentLength int64, entry EntryLike, progress UploadProgressFunc) (*UploadStream, error) {
	header := make(http.Header)
	header.Set("Slug", slug)
	header.Set("X-Upload-Content-Type", contentType)
	if contentLength >= 0 {
		header.Set("X-Upload-Content-Length", strconv.FormatInt(contentLength, 10))
	}

	var body []byte
	if entry != nil {
		var err error
		var bodyType string
		body, bodyType, err = s.marshalEntry(entry)
		if err != nil {
			return nil, err
		}
		header.Set("Content-Type", bodyType)
	}

	return s.startUploadSession(ctx, domain, http.MethodPost, uploadURI, header, body, contentType, contentLength, progress)
}

// UpdateEntryMedia starts a resumable session replacing the media document
// of an already-inserted entry, addressed through its resumable-edit-media
// link. The entry's ETag guards against concurrent modification.
func (s *Service) UpdateEntryMedia(ctx context.Context, domain AuthorizationDomain, entry EntryLike, slug, contentType string, contentLength int64, progress UploadProgressFunc) (*UploadStream, error) {
	common := entry.CommonEntry()
	link := common.LookupLink(RelResumableEditMedia)
	if link == nil {
		return nil, NewError(KindProtocol, "entry carries no resumable-edit-media link")
	}
	header := make(http.Header)
	header.Set("Slug", slug)
	header.Set("X-Upload-Content-Type", contentType)
	if contentLength >= 0 {
		header.Set("X-Upload-Content-Length", strconv.FormatInt(contentLength, 10))
	}
	if common.ETag != "" {
		header.Set("If-Match", common.ETag)
	}
	return s.startUploadSession(ctx, domain, http.MethodPut, link.Href, header, nil, contentType, contentLength, progress)
}

func (s *Service) startUploadSession(ctx context.Context, domain AuthorizationDomain, method, uri string, header http.Header, body []byte, contentType string, contentLength int64, progress UploadProgressFunc) (*UploadStream, error) {
	status, respHeader, respBody, err := s.do(ctx, domain, method, uri, header, body)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, s.statusError(status, respHeader, respBody)
	}
	sessionURI := respHeader.Get("Location")
	if sessionURI == "" {
		return nil, NewError(KindProtocol, "upload session response carries no Location")
	}
	return &UploadStream{
		svc:         s,
		domain:      domain,
		ctx:         ctx,
		sessionURI:  sessionURI,
		contentType: contentType,
		total:       contentLength,
		progress:    progress,
	}, nil
}

// Write buffers p, sending full chunks as they accumulate. Write returns
// the first upload failure and fails all subsequent calls with it.
func (u *UploadStream) Write(p []byte) (int, error) {
	if u.closed {
		return 0, NewError(KindProtocol, "upload stream is closed")
	}
	if u.uploadErr != nil {
		return 0, u.uploadErr
	}
	if err := u.ctx.Err(); err != nil {
		u.uploadErr = WrapError(KindCancelled, "upload cancelled", err)
		return 0, u.uploadErr
	}

	u.buf.Write(p)
	for u.buf.Len() >= MaxResumableChunkSize {
		chunk := make([]byte, MaxResumableChunkSize)
		copy(chunk, u.buf.Bytes()[:MaxResumableChunkSize])
		u.buf.Next(MaxResumableChunkSize)
		if err := u.sendChunk(chunk, false); err != nil {
			u.uploadErr = err
			return len(p), err
		}
	}
	return len(p), nil
}

// Close flushes the remaining bytes as the final chunk and completes the
// session. The server's response entry becomes available to FinishUpload.
func (u *UploadStream) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	if u.uploadErr != nil {
		return u.uploadErr
	}
	if err := u.sendChunk(u.buf.Bytes(), true); err != nil {
		u.uploadErr = err
		return err
	}
	u.buf.Reset()
	return nil
}

// sendChunk uploads one block, retrying transient failures with exponential
// backoff. final marks the last block; its Content-Range carries the now
// exact total.
func (u *UploadStream) sendChunk(chunk []byte, final bool) error {
	start := u.offset
	end := start + int64(len(chunk)) - 1

	total := "*"
	if final {
		total = strconv.FormatInt(end+1, 10)
	} else if u.total >= 0 {
		total = strconv.FormatInt(u.total, 10)
	}

	var contentRange string
	if len(chunk) == 0 {
		// A zero-byte final chunk still needs to close the session.
		contentRange = "bytes */" + total
	} else {
		contentRange = "bytes " + strconv.FormatInt(start, 10) + "-" + strconv.FormatInt(end, 10) + "/" + total
	}

	header := make(http.Header)
	header.Set("Content-Type", u.contentType)
	header.Set("Content-Range", contentRange)

	backoff := time.Second
	var lastErr error
	for attempt := 0; attempt < uploadRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-u.ctx.Done():
				return WrapError(KindCancelled, "upload cancelled", u.ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		status, _, body, err := u.svc.do(u.ctx, u.domain, http.MethodPut, u.sessionURI, header, chunk)
		if err != nil {
			if IsCancelled(err) {
				return err
			}
			lastErr = err
			continue
		}

		switch {
		case status == 308:
			u.offset = end + 1
			if u.progress != nil {
				u.progress(u.offset, u.total)
			}
			return nil
		case isSuccess(status):
			u.offset = end + 1
			u.finalBody = body
			if u.progress != nil {
				u.progress(u.offset, u.total)
			}
			return nil
		case status >= 500:
			lastErr = NewError(KindUnavailable, "upload chunk rejected with status "+strconv.Itoa(status))
			continue
		default:
			return u.svc.statusError(status, nil, body)
		}
	}
	return lastErr
}

// FinishUpload parses the server's response entry for the completed upload.
// It is valid to call after a failed Close: the upload error is returned
// then, so a single FinishUpload at the end of an upload sees either the
// entry or the reason there is none.
func (u *UploadStream) FinishUpload(factory EntryFactory) (EntryLike, error) {
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	if !u.closed {
		return nil, NewError(KindProtocol, "upload stream has not been closed")
	}
	if len(u.finalBody) == 0 {
		return nil, NewError(KindProtocol, "upload session returned no entry")
	}
	entry, err := u.svc.parseEntryBody(u.finalBody, factory)
	if err != nil {
		return nil, err
	}
	entry.CommonEntry().MarkInserted()
	return entry, nil
}
