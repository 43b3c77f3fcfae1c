package reliability

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackupTimestamp(t *testing.T) {
	ts, ok := parseBackupTimestamp("backups/conviction-backup-2026-03-15-040000.tar.gz")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 15, 4, 0, 0, 0, time.UTC), ts)

	_, ok = parseBackupTimestamp("backups/not-a-backup.tar.gz")
	assert.False(t, ok)
}

func TestChecksumFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	checksum, err := checksumFile(src)
	require.NoError(t, err)
	// sha256("hello")
	assert.Equal(t, "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", checksum)
}

func TestCreateArchiveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.db"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.db"), []byte("beta"), 0o644))

	archivePath := filepath.Join(dir, "out.tar.gz")
	require.NoError(t, createArchive(dir, archivePath, []string{"a.db", "b.db"}))

	f, err := os.Open(archivePath)
	require.NoError(t, err)
	defer f.Close()

	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gr)

	contents := map[string]string{}
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		contents[header.Name] = string(data)
	}

	assert.Equal(t, map[string]string{"a.db": "alpha", "b.db": "beta"}, contents)
}
