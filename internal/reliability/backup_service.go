package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/conviction/internal/config"
	"github.com/aristath/conviction/internal/database"
)

const (
	backupPrefix     = "backups/"
	backupNameFormat = "2006-01-02-150405"
	minBackupsKept   = 3
)

// BackupMetadata describes one archive. It is stored inside the archive as
// metadata.json so a restore can verify the databases it unpacks.
type BackupMetadata struct {
	CreatedAt time.Time          `json:"created_at"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata is the per-database entry in BackupMetadata.
type DatabaseMetadata struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// BackupInfo describes one archive already in the bucket.
type BackupInfo struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupService archives the application's databases to S3-compatible
// storage and rotates old archives.
type BackupService struct {
	storage   *StorageClient
	databases map[string]*database.DB
	dataDir   string
	keepCount int
	log       zerolog.Logger
}

// NewBackupService creates the backup service. The config must already have
// passed BackupConfig.Enabled().
func NewBackupService(cfg *config.BackupConfig, dataDir string, databases map[string]*database.DB, log zerolog.Logger) (*BackupService, error) {
	storage, err := NewStorageClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	keep := cfg.KeepCount
	if keep < minBackupsKept {
		keep = minBackupsKept
	}

	return &BackupService{
		storage:   storage,
		databases: databases,
		dataDir:   dataDir,
		keepCount: keep,
		log:       log.With().Str("service", "backup").Logger(),
	}, nil
}

// Backup stages copies of the databases, archives them with a metadata
// manifest, uploads the archive, and rotates old backups.
func (s *BackupService) Backup(ctx context.Context) error {
	start := time.Now()

	stagingDir, err := os.MkdirTemp(s.dataDir, "backup-staging-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	meta := BackupMetadata{CreatedAt: start.UTC()}
	fileNames := make([]string, 0, len(s.databases))
	for name, db := range s.databases {
		fileName := name + ".db"
		dst := filepath.Join(stagingDir, fileName)

		// VACUUM INTO produces a consistent snapshot even while the
		// database is being written.
		if _, err := db.Conn().ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
			return fmt.Errorf("failed to snapshot %s: %w", name, err)
		}

		info, err := os.Stat(dst)
		if err != nil {
			return fmt.Errorf("failed to stat %s snapshot: %w", name, err)
		}
		checksum, err := checksumFile(dst)
		if err != nil {
			return fmt.Errorf("failed to checksum %s snapshot: %w", name, err)
		}

		fileNames = append(fileNames, fileName)
		meta.Databases = append(meta.Databases, DatabaseMetadata{
			Name:     name,
			Size:     info.Size(),
			Checksum: checksum,
		})
	}
	sort.Strings(fileNames)

	metaPath := filepath.Join(stagingDir, "metadata.json")
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, metaBytes, 0o644); err != nil {
		return fmt.Errorf("failed to write backup metadata: %w", err)
	}

	archiveName := fmt.Sprintf("conviction-backup-%s.tar.gz", start.UTC().Format(backupNameFormat))
	archivePath := filepath.Join(stagingDir, archiveName)
	if err := createArchive(stagingDir, archivePath, append([]string{"metadata.json"}, fileNames...)); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	key := backupPrefix + archiveName
	if err := s.storage.Upload(ctx, key, archive); err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}

	s.log.Info().
		Str("key", key).
		Dur("duration", time.Since(start)).
		Msg("Backup uploaded")

	if err := s.RotateOldBackups(ctx); err != nil {
		// The new backup is safe; rotation failure is not fatal.
		s.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}

// ListBackups returns the archives in the bucket, newest first.
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.storage.List(ctx, backupPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	var backups []BackupInfo
	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}
		info := BackupInfo{Key: *obj.Key}
		if obj.Size != nil {
			info.Size = *obj.Size
		}
		if ts, ok := parseBackupTimestamp(*obj.Key); ok {
			info.CreatedAt = ts
		} else if obj.LastModified != nil {
			info.CreatedAt = *obj.LastModified
		}
		backups = append(backups, info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// RotateOldBackups deletes archives beyond the configured keep count.
func (s *BackupService) RotateOldBackups(ctx context.Context) error {
	backups, err := s.ListBackups(ctx)
	if err != nil {
		return err
	}
	if len(backups) <= s.keepCount {
		return nil
	}

	for _, old := range backups[s.keepCount:] {
		if err := s.storage.Delete(ctx, old.Key); err != nil {
			return fmt.Errorf("failed to rotate backup %s: %w", old.Key, err)
		}
		s.log.Info().Str("key", old.Key).Msg("Old backup deleted")
	}
	return nil
}

// parseBackupTimestamp extracts the timestamp embedded in an archive key.
func parseBackupTimestamp(key string) (time.Time, bool) {
	name := strings.TrimPrefix(key, backupPrefix)
	name = strings.TrimPrefix(name, "conviction-backup-")
	name = strings.TrimSuffix(name, ".tar.gz")

	ts, err := time.Parse(backupNameFormat, name)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// checksumFile returns the sha256 of a file's contents.
func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// createArchive writes the named files from dir into a tar.gz at archivePath.
func createArchive(dir, archivePath string, files []string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	defer gw.Close()
	tw := tar.NewWriter(gw)
	defer tw.Close()

	for _, name := range files {
		if err := addFileToArchive(tw, filepath.Join(dir, name), name); err != nil {
			return fmt.Errorf("failed to archive %s: %w", name, err)
		}
	}
	return nil
}

func addFileToArchive(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
