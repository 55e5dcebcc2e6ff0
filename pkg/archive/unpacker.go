package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"coolromdl/pkg/errors"
	"coolromdl/pkg/logger"
)

const copyBufferSize = 32 * 1024

// Request describes one extraction
type Request struct {
	// ArchivePath is the downloaded file on disk
	ArchivePath string
	// Filename is the server-declared name; it drives dispatch
	Filename string
	// Dest receives the extracted entries
	Dest string
	// Owner is a user name; empty skips chown
	Owner string
	Mode  os.FileMode
	// HasMode distinguishes an explicit 000 from no mode
	HasMode bool
	Clean   bool
}

// Unpacker extracts downloaded archives and normalizes the result
type Unpacker struct {
	logger logger.Logger
}

// NewUnpacker creates a new unpacker
func NewUnpacker(log logger.Logger) *Unpacker {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Unpacker{logger: log}
}

// Extract unpacks req.ArchivePath into req.Dest using the strategy picked
// from req.Filename. It reports false with a nil error for unsupported
// names. After a successful extraction the destination tree is normalized
// and, when requested, the archive is removed; failures there are logged
// and do not change the result.
func (u *Unpacker) Extract(ctx context.Context, req Request) (bool, error) {
	kind := DetectKind(req.Filename)
	if kind == KindNone {
		u.logger.DebugWithFields("Not an archive, skipping extraction", map[string]interface{}{
			"filename": req.Filename,
		})
		return false, nil
	}

	if err := os.MkdirAll(req.Dest, 0755); err != nil {
		extErr := errors.Wrap(errors.ErrorTypeExtraction, err, "cannot create %s", req.Dest)
		logger.LogExtraction(u.logger, req.ArchivePath, kind.String(), req.Dest, false, extErr)
		return false, extErr
	}

	var err error
	switch kind {
	case KindTar:
		err = u.extractTar(ctx, req)
	case KindZip:
		err = u.extractWith(ctx, archives.Zip{}, req)
	case KindSevenZip:
		err = u.extractWith(ctx, archives.SevenZip{}, req)
	case KindGzip:
		err = u.extractGzip(req)
	}
	if err != nil {
		extErr := errors.Wrap(errors.ErrorTypeExtraction, err, "cannot extract %s", req.Filename)
		logger.LogExtraction(u.logger, req.ArchivePath, kind.String(), req.Dest, false, extErr)
		return false, extErr
	}
	logger.LogExtraction(u.logger, req.ArchivePath, kind.String(), req.Dest, true, nil)

	var owner *Owner
	if req.Owner != "" {
		o, err := LookupOwner(req.Owner)
		if err != nil {
			u.logger.WithError(errors.Wrap(errors.ErrorTypeFilesystem, err, "cannot resolve owner")).
				Warn("Skipping ownership change")
		} else {
			owner = &o
		}
	}
	if req.HasMode || owner != nil {
		normalize(req.Dest, req.Mode, req.HasMode, owner, u.logger)
	}

	if req.Clean {
		if err := os.Remove(req.ArchivePath); err != nil {
			u.logger.WithError(errors.Wrap(errors.ErrorTypeFilesystem, err, "cannot remove %s", req.ArchivePath)).
				Warn("Failed to clean up archive")
		} else {
			u.logger.InfoWithFields("Removed archive", map[string]interface{}{"path": req.ArchivePath})
		}
	}

	return true, nil
}

// extractTar lets the library detect the compression wrapped around the
// tar stream.
func (u *Unpacker) extractTar(ctx context.Context, req Request) error {
	file, err := os.Open(req.ArchivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	format, input, err := archives.Identify(ctx, req.Filename, file)
	if err != nil {
		return fmt.Errorf("failed to identify archive: %w", err)
	}
	extractor, ok := format.(archives.Extractor)
	if !ok {
		return fmt.Errorf("format %s cannot be extracted", format.Extension())
	}
	return extractor.Extract(ctx, input, u.entryHandler(req.Dest))
}

// extractWith runs a random-access extractor (zip, 7z) over the file
func (u *Unpacker) extractWith(ctx context.Context, extractor archives.Extractor, req Request) error {
	file, err := os.Open(req.ArchivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	return extractor.Extract(ctx, file, u.entryHandler(req.Dest))
}

// extractGzip decompresses a single gzip stream into the declared
// filename minus its .gz suffix.
func (u *Unpacker) extractGzip(req Request) error {
	file, err := os.Open(req.ArchivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	reader, err := archives.Gz{}.OpenReader(file)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer reader.Close()

	base := filepath.Base(req.Filename)
	name := base[:len(base)-len(filepath.Ext(base))]
	target := filepath.Join(req.Dest, name)

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	if _, err := io.CopyBuffer(out, reader, make([]byte, copyBufferSize)); err != nil {
		out.Close()
		os.Remove(target)
		return fmt.Errorf("failed to decompress: %w", err)
	}
	return out.Close()
}

// entryHandler writes each archive entry under dest, overwriting existing
// files. Entries resolving outside dest and symlinks are skipped.
func (u *Unpacker) entryHandler(dest string) archives.FileHandler {
	root := filepath.Clean(dest) + string(os.PathSeparator)

	return func(ctx context.Context, f archives.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		target := filepath.Clean(filepath.Join(dest, f.NameInArchive))
		if !strings.HasPrefix(target+string(os.PathSeparator), root) {
			u.logger.WarnWithFields("Skipping entry outside destination", map[string]interface{}{
				"entry": f.NameInArchive,
			})
			return nil
		}

		if f.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if f.Mode()&os.ModeSymlink != 0 {
			u.logger.DebugWithFields("Skipping symlink", map[string]interface{}{"entry": f.NameInArchive})
			return nil
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create parent directories: %w", err)
		}

		reader, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", f.NameInArchive, err)
		}
		defer reader.Close()

		perm := f.Mode().Perm()
		if perm == 0 {
			perm = 0644
		}
		writer, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", target, err)
		}
		defer writer.Close()

		if _, err := io.CopyBuffer(writer, reader, make([]byte, copyBufferSize)); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}

		u.logger.DebugWithFields("Extracted entry", map[string]interface{}{"entry": f.NameInArchive})
		return nil
	}
}
