// Package avfile adapts the engine package's SourceFile and filter-graph
// backend seams to github.com/asticode/go-astiav, the Go binding over
// libavformat/libavcodec/libavfilter.
package avfile

import (
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// HTTPSeeker wraps a remote URL as an io.ReadSeekCloser using HTTP range
// requests, retrying transient request failures via retryablehttp.
type HTTPSeeker struct {
	url           string
	currentPos    int64
	contentLength int64
	contentType   string
	reader        io.ReadCloser
	client        *retryablehttp.Client
}

// NewHTTPSeeker opens url, issuing a HEAD request first to discover its
// length and content type, then an initial GET from offset 0 (sent
// without a Range header).
func NewHTTPSeeker(url string) (*HTTPSeeker, error) {
	client := retryablehttp.NewClient()
	client.Logger = nil

	resp, err := client.Head(url)
	if err != nil {
		return nil, fmt.Errorf("groovecore/avfile: HEAD %s: %w", url, err)
	}
	resp.Body.Close()

	hs := &HTTPSeeker{
		url:           url,
		contentLength: resp.ContentLength,
		contentType:   resp.Header.Get("Content-Type"),
		client:        client,
	}
	if err := hs.openReader(0); err != nil {
		return nil, err
	}
	return hs, nil
}

// ContentType returns the Content-Type header observed on the HEAD
// request.
func (hs *HTTPSeeker) ContentType() string { return hs.contentType }

func (hs *HTTPSeeker) openReader(pos int64) error {
	if hs.reader != nil {
		hs.reader.Close()
	}

	req, err := retryablehttp.NewRequest(http.MethodGet, hs.url, nil)
	if err != nil {
		return fmt.Errorf("groovecore/avfile: building range request: %w", err)
	}
	if pos > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", pos))
	}

	resp, err := hs.client.Do(req)
	if err != nil {
		return fmt.Errorf("groovecore/avfile: GET %s: %w", hs.url, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return fmt.Errorf("groovecore/avfile: unexpected status %d from %s", resp.StatusCode, hs.url)
	}

	hs.reader = resp.Body
	hs.currentPos = pos
	return nil
}

// Read implements io.Reader.
func (hs *HTTPSeeker) Read(p []byte) (int, error) {
	if hs.reader == nil {
		return 0, fmt.Errorf("groovecore/avfile: no active reader")
	}
	n, err := hs.reader.Read(p)
	hs.currentPos += int64(n)
	return n, err
}

// Seek implements io.Seeker, reopening the underlying connection with a
// new Range header whenever the target position differs from the
// current one.
func (hs *HTTPSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = hs.currentPos + offset
	case io.SeekEnd:
		newPos = hs.contentLength + offset
	default:
		return 0, fmt.Errorf("groovecore/avfile: invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("groovecore/avfile: negative seek position")
	}
	if hs.contentLength >= 0 && newPos > hs.contentLength {
		newPos = hs.contentLength
	}
	if newPos != hs.currentPos {
		if err := hs.openReader(newPos); err != nil {
			return hs.currentPos, err
		}
	}
	return hs.currentPos, nil
}

// Close implements io.Closer.
func (hs *HTTPSeeker) Close() error {
	if hs.reader != nil {
		return hs.reader.Close()
	}
	return nil
}
