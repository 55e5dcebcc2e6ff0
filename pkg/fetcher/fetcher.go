package fetcher

import (
	"context"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"coolromdl/pkg/config"
	"coolromdl/pkg/errors"
	"coolromdl/pkg/logger"
	"coolromdl/pkg/models"
	"coolromdl/pkg/storage"
)

// Opener issues a GET carrying the fixed client headers plus a Referer
type Opener interface {
	Open(ctx context.Context, url, referer string) (*http.Response, error)
}

// ProgressReporter receives the percentage written after every chunk.
// The value is not clamped: a body longer than declared exceeds 100.
type ProgressReporter interface {
	Start(filename string, total int64)
	Update(percent float64)
	Finish()
}

// Fetcher streams one binary into the output directory
type Fetcher struct {
	opener    Opener
	storage   *storage.Manager
	progress  ProgressReporter
	chunkSize int
	logger    logger.Logger
}

// New creates a fetcher writing through store
func New(opener Opener, store *storage.Manager, progress ProgressReporter, chunkSize int, log logger.Logger) *Fetcher {
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		opener:    opener,
		storage:   store,
		progress:  progress,
		chunkSize: chunkSize,
		logger:    log,
	}
}

// Fetch downloads url into the output directory under the filename the
// server declares. On cancellation or any mid-stream failure the partial
// file is removed.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, referer string) (*models.ResolvedDownload, error) {
	resp, err := f.opener.Open(ctx, rawURL, referer)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	length, err := DeclaredLength(resp.Header)
	if err != nil {
		return nil, err
	}
	filename, err := DeclaredFilename(resp.Header)
	if err != nil {
		return nil, err
	}

	file, path, err := f.storage.Create(filename)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeFilesystem, err, "cannot open destination for %s", filename)
	}

	result := &models.ResolvedDownload{
		URL:      rawURL,
		Length:   length,
		Filename: filename,
		Path:     path,
	}

	f.logger.InfoWithFields("Downloading", map[string]interface{}{
		"filename": filename,
		"bytes":    length,
		"path":     path,
	})

	written, copyErr := f.copyChunks(ctx, file, resp.Body, filename, length)
	closeErr := file.Close()
	result.Written = written
	logger.LogProgress(f.logger, filename, written, length)

	if copyErr == nil && closeErr != nil {
		copyErr = errors.Wrap(errors.ErrorTypeFilesystem, closeErr, "failed to close %s", path)
	}
	if copyErr != nil {
		if rmErr := f.storage.Remove(path); rmErr != nil {
			f.logger.WithError(rmErr).Warn("Failed to remove partial file")
		}
		return result, copyErr
	}

	return result, nil
}

func (f *Fetcher) copyChunks(ctx context.Context, dst io.Writer, src io.Reader, filename string, total int64) (int64, error) {
	if f.progress != nil {
		f.progress.Start(filename, total)
		defer f.progress.Finish()
	}

	buf := make([]byte, f.chunkSize)
	var written int64
	for {
		if ctx.Err() != nil {
			return written, errors.Wrap(errors.ErrorTypeCancelled, ctx.Err(), "download of %s interrupted", filename)
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, errors.Wrap(errors.ErrorTypeFilesystem, err, "failed to write %s", filename)
			}
			written += int64(n)
			if f.progress != nil {
				f.progress.Update(Percent(written, total))
			}
		}

		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			if ctx.Err() != nil || stderrors.Is(readErr, context.Canceled) {
				return written, errors.Wrap(errors.ErrorTypeCancelled, readErr, "download of %s interrupted", filename)
			}
			return written, errors.Wrap(errors.ErrorTypeNetwork, readErr, "failed to read %s", filename)
		}
	}
}

// Percent returns written as a percentage of total
func Percent(written, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(written) / float64(total) * 100
}

// DeclaredLength parses the required Content-Length header
func DeclaredLength(h http.Header) (int64, error) {
	raw := strings.TrimSpace(h.Get("Content-Length"))
	if raw == "" {
		return 0, errors.New(errors.ErrorTypeProtocol, "response has no Content-Length")
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, errors.New(errors.ErrorTypeProtocol, "invalid Content-Length %q", raw)
	}
	return n, nil
}

// DeclaredFilename extracts and percent-decodes the filename parameter of
// the required Content-Disposition header. No filename is guessed from the
// URL.
func DeclaredFilename(h http.Header) (string, error) {
	raw := h.Get("Content-Disposition")
	if raw == "" {
		return "", errors.New(errors.ErrorTypeProtocol, "response has no Content-Disposition")
	}

	var name string
	if _, params, err := mime.ParseMediaType(raw); err == nil {
		name = params["filename"]
	}
	if name == "" {
		// Non-conforming values such as `attachment; filename=a b.zip`
		if i := strings.LastIndex(raw, "="); i >= 0 {
			name = strings.Trim(strings.TrimSpace(raw[i+1:]), `"`)
		}
	}
	if name == "" {
		return "", errors.New(errors.ErrorTypeProtocol, "no filename in Content-Disposition %q", raw)
	}

	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return name, nil
}
