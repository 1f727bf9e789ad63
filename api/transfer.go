package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
)

// ProgressFunc receives the number of bytes sent so far and the total size
// (-1 when unknown).
type ProgressFunc func(sent, total int64)

// Upload streams r as a multipart file upload to path. Uploads are never
// retried; a partially consumed stream cannot be replayed.
func (c *Client) Upload(ctx context.Context, urlPath, field, filename string, r io.Reader, size int64, progress ProgressFunc) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			pw.CloseWithError(fmt.Errorf("create form file: %w", err))
			return
		}
		src := io.Reader(r)
		if progress != nil {
			src = &progressReader{r: r, total: size, progress: progress}
		}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(fmt.Errorf("copy upload body: %w", err))
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	traceID := c.newTraceID()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+urlPath, pr)
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(TraceHeader, traceID)
	c.attachBearer(ctx, req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", urlPath, &Error{NetworkError: true, Message: err.Error(), TraceID: traceID})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode, Message: serverMessage(resp.Body), TraceID: traceID}
		if resp.StatusCode == http.StatusUnauthorized {
			c.sessionExpired(ctx)
		}
		return fmt.Errorf("POST %s: %w", urlPath, apiErr)
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}

// Download streams the response body for path into w and returns the
// filename advertised in Content-Disposition, falling back to the last path
// segment.
func (c *Client) Download(ctx context.Context, urlPath string, w io.Writer) (string, error) {
	traceID := c.newTraceID()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+urlPath, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set(TraceHeader, traceID)
	c.attachBearer(ctx, req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", urlPath, &Error{NetworkError: true, Message: err.Error(), TraceID: traceID})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode, Message: serverMessage(resp.Body), TraceID: traceID}
		if resp.StatusCode == http.StatusUnauthorized {
			c.sessionExpired(ctx)
		}
		return "", fmt.Errorf("GET %s: %w", urlPath, apiErr)
	}

	filename := path.Base(urlPath)
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			filename = params["filename"]
		}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("copy download body: %w", err)
	}
	return filename, nil
}

type progressReader struct {
	r        io.Reader
	sent     int64
	total    int64
	progress ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.sent += int64(n)
		p.progress(p.sent, p.total)
	}
	return n, err
}
