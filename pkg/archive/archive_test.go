package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"os/user"
	"path/filepath"
	"syscall"
	"testing"

	"coolromdl/pkg/errors"
	"coolromdl/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func tarBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write(data)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		filename string
		want     Kind
	}{
		{"game.zip", KindZip},
		{"GAME.ZIP", KindZip},
		{"game.tar.gz", KindTar},
		{"game.tgz", KindTar},
		{"game.tar", KindTar},
		{"game.tar.xz", KindTar},
		{"game.gz", KindGzip},
		{"game.7z", KindSevenZip},
		{"game.nes", KindNone},
		{"game.rar", KindNone},
		{"zip", KindNone},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectKind(tt.filename))
		})
	}
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "adv.zip")
	writeZip(t, archivePath, map[string]string{
		"Adventure Island.nes": "rom-bytes",
		"docs/readme.txt":      "hello",
	})

	ok, err := NewUnpacker(logger.NewNopLogger()).Extract(context.Background(), Request{
		ArchivePath: archivePath,
		Filename:    "adv.zip",
		Dest:        dir,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "rom-bytes", readFile(t, filepath.Join(dir, "Adventure Island.nes")))
	assert.Equal(t, "hello", readFile(t, filepath.Join(dir, "docs", "readme.txt")))
	assert.FileExists(t, archivePath)
}

func TestExtractZipOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "game.nes"), []byte("old and longer"), 0644))

	archivePath := filepath.Join(dir, "game.zip")
	writeZip(t, archivePath, map[string]string{"game.nes": "new"})

	ok, err := NewUnpacker(logger.NewNopLogger()).Extract(context.Background(), Request{
		ArchivePath: archivePath, Filename: "game.zip", Dest: dir,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new", readFile(t, filepath.Join(dir, "game.nes")))
}

func TestExtractZipSkipsTraversal(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "out")
	require.NoError(t, os.MkdirAll(dir, 0755))

	archivePath := filepath.Join(dir, "evil.zip")
	writeZip(t, archivePath, map[string]string{
		"../escaped.txt": "nope",
		"inside.txt":     "yes",
	})

	_, _ = NewUnpacker(logger.NewNopLogger()).Extract(context.Background(), Request{
		ArchivePath: archivePath, Filename: "evil.zip", Dest: dir,
	})

	assert.NoFileExists(t, filepath.Join(parent, "escaped.txt"))
}

func TestExtractTarGz(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "pack.tar.gz")
	data := gzipBytes(t, tarBytes(t, map[string]string{"pack/one.bin": "1", "pack/two.bin": "22"}))
	require.NoError(t, os.WriteFile(archivePath, data, 0644))

	ok, err := NewUnpacker(logger.NewNopLogger()).Extract(context.Background(), Request{
		ArchivePath: archivePath, Filename: "pack.tar.gz", Dest: dir,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "1", readFile(t, filepath.Join(dir, "pack", "one.bin")))
	assert.Equal(t, "22", readFile(t, filepath.Join(dir, "pack", "two.bin")))
	// A tarball must never be treated as a single gzip stream
	assert.NoFileExists(t, filepath.Join(dir, "pack.tar"))
}

func TestExtractPlainTar(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "pack.tar")
	require.NoError(t, os.WriteFile(archivePath, tarBytes(t, map[string]string{"a.txt": "alpha"}), 0644))

	ok, err := NewUnpacker(logger.NewNopLogger()).Extract(context.Background(), Request{
		ArchivePath: archivePath, Filename: "pack.tar", Dest: dir,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alpha", readFile(t, filepath.Join(dir, "a.txt")))
}

func TestExtractGzip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "game.nes.gz")
	require.NoError(t, os.WriteFile(archivePath, gzipBytes(t, []byte("cartridge")), 0644))

	ok, err := NewUnpacker(logger.NewNopLogger()).Extract(context.Background(), Request{
		ArchivePath: archivePath, Filename: "game.nes.gz", Dest: dir,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cartridge", readFile(t, filepath.Join(dir, "game.nes")))
}

func TestExtractUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.nes")
	require.NoError(t, os.WriteFile(path, []byte("raw"), 0644))

	ok, err := NewUnpacker(logger.NewNopLogger()).Extract(context.Background(), Request{
		ArchivePath: path, Filename: "game.nes", Dest: dir, Clean: true,
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.FileExists(t, path)
}

func TestExtractCorruptArchiveKeepsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip file"), 0644))

	ok, err := NewUnpacker(logger.NewNopLogger()).Extract(context.Background(), Request{
		ArchivePath: path, Filename: "broken.zip", Dest: dir, Clean: true, Mode: 0700, HasMode: true,
	})
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.IsType(err, errors.ErrorTypeExtraction))

	info, statErr := os.Stat(path)
	require.NoError(t, statErr)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestExtractCorruptSevenZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.7z")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))

	ok, err := NewUnpacker(logger.NewNopLogger()).Extract(context.Background(), Request{
		ArchivePath: path, Filename: "broken.7z", Dest: dir,
	})
	assert.False(t, ok)
	assert.True(t, errors.IsType(err, errors.ErrorTypeExtraction))
}

func TestExtractSevenZip(t *testing.T) {
	fixture, err := os.ReadFile(filepath.Join("testdata", "stored.7z"))
	require.NoError(t, err)

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "pair.7z")
	require.NoError(t, os.WriteFile(archivePath, fixture, 0644))

	ok, err := NewUnpacker(logger.NewNopLogger()).Extract(context.Background(), Request{
		ArchivePath: archivePath, Filename: "pair.7z", Dest: dir,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bar\n", readFile(t, filepath.Join(dir, "bar")))
	assert.Equal(t, "foo\n", readFile(t, filepath.Join(dir, "foo")))
	assert.FileExists(t, archivePath)
}

func TestExtractAppliesModeBelowRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dest")
	require.NoError(t, os.MkdirAll(dir, 0700))

	archivePath := filepath.Join(dir, "adv.zip")
	writeZip(t, archivePath, map[string]string{"sub/game.nes": "x", "top.nes": "y"})

	ok, err := NewUnpacker(logger.NewNopLogger()).Extract(context.Background(), Request{
		ArchivePath: archivePath, Filename: "adv.zip", Dest: dir, Mode: 0755, HasMode: true,
	})
	require.NoError(t, err)
	require.True(t, ok)

	for _, rel := range []string{"sub", "sub/game.nes", "top.nes", "adv.zip"} {
		info, err := os.Stat(filepath.Join(dir, rel))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0755), info.Mode().Perm(), rel)
	}

	rootInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), rootInfo.Mode().Perm())
}

func TestExtractChownToCurrentUser(t *testing.T) {
	current, err := user.Current()
	require.NoError(t, err)
	owner, err := LookupOwner(current.Username)
	if err != nil {
		t.Skipf("no group named after %s: %v", current.Username, err)
	}

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "adv.zip")
	writeZip(t, archivePath, map[string]string{"game.nes": "x"})

	log := logger.NewTestLogger()
	ok, err := NewUnpacker(log).Extract(context.Background(), Request{
		ArchivePath: archivePath, Filename: "adv.zip", Dest: dir, Owner: owner.Name,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, log.HasMessage("Ownership or permission change failed"))
}

func TestExtractChownsNestedEntries(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("changing ownership to another user requires root")
	}
	owner, err := LookupOwner("daemon")
	if err != nil {
		t.Skipf("no daemon user and group: %v", err)
	}

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "adv.zip")
	writeZip(t, archivePath, map[string]string{"sub/game.nes": "x"})

	log := logger.NewTestLogger()
	ok, err := NewUnpacker(log).Extract(context.Background(), Request{
		ArchivePath: archivePath, Filename: "adv.zip", Dest: dir, Owner: owner.Name, Mode: 0755, HasMode: true,
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, log.HasMessage("Ownership or permission change failed"))

	for _, rel := range []string{"sub", "sub/game.nes"} {
		info, err := os.Stat(filepath.Join(dir, rel))
		require.NoError(t, err)
		stat, isStat := info.Sys().(*syscall.Stat_t)
		require.True(t, isStat, rel)
		assert.Equal(t, uint32(owner.UID), stat.Uid, rel)
		assert.Equal(t, uint32(owner.GID), stat.Gid, rel)
		assert.Equal(t, os.FileMode(0755), info.Mode().Perm(), rel)
	}

	rootInfo, err := os.Stat(dir)
	require.NoError(t, err)
	rootStat := rootInfo.Sys().(*syscall.Stat_t)
	assert.Equal(t, uint32(os.Geteuid()), rootStat.Uid)
}

func TestExtractUnknownOwnerIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "adv.zip")
	writeZip(t, archivePath, map[string]string{"game.nes": "x"})

	log := logger.NewTestLogger()
	ok, err := NewUnpacker(log).Extract(context.Background(), Request{
		ArchivePath: archivePath, Filename: "adv.zip", Dest: dir, Owner: "no-such-user-coolromdl",
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, log.HasMessage("Skipping ownership change"))
	assert.FileExists(t, filepath.Join(dir, "game.nes"))
}

func TestExtractClean(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "adv.zip")
	writeZip(t, archivePath, map[string]string{"game.nes": "x"})

	ok, err := NewUnpacker(logger.NewNopLogger()).Extract(context.Background(), Request{
		ArchivePath: archivePath, Filename: "adv.zip", Dest: dir, Clean: true,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoFileExists(t, archivePath)
	assert.FileExists(t, filepath.Join(dir, "game.nes"))
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("755")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), mode)

	mode, err = ParseMode("0640")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), mode)

	_, err = ParseMode("rwx")
	assert.Error(t, err)

	_, err = ParseMode("4755")
	assert.Error(t, err)
}
