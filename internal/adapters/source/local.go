package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mikey/email-analytics/internal/core"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a file does not exist in the source
	ErrNotFound = errors.New("file not found")
	// ErrTooLarge is returned when a file exceeds the configured size limit
	ErrTooLarge = errors.New("file too large")
	// ErrNotCSV is returned when a file name does not end in .csv
	ErrNotCSV = errors.New("only CSV files are allowed")
)

var _ core.FileStore = (*LocalSource)(nil)

// LocalSource serves CSV files from a directory on disk
type LocalSource struct {
	dir     string
	maxSize int64
	logger  *zap.Logger
	now     func() time.Time
}

// NewLocalSource creates a file source over dir, creating it if needed
func NewLocalSource(dir string, maxSize int64, logger *zap.Logger) (*LocalSource, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create mails directory: %w", err)
	}
	return &LocalSource{
		dir:     dir,
		maxSize: maxSize,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// List returns the CSV files in the directory, newest first
func (s *LocalSource) List(ctx context.Context) ([]core.FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mails directory: %w", err)
	}

	files := make([]core.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isCSV(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("Failed to stat file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		files = append(files, core.FileInfo{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	sortNewestFirst(files)
	return files, ctx.Err()
}

// Fetch reads a file from the directory
func (s *LocalSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	return readLimited(f, name, s.maxSize)
}

// Save stores an uploaded CSV under a unique name derived from the original
// file name and returns the stored name
func (s *LocalSource) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if !isCSV(originalName) {
		return "", ErrNotCSV
	}
	data, err := readLimited(r, originalName, s.maxSize)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := UploadName(originalName, s.now())
	if err := atomic.WriteFile(filepath.Join(s.dir, name), bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	s.logger.Info("Stored uploaded file", zap.String("file", name), zap.Int("size", len(data)))
	return name, nil
}

// Delete removes a file from the directory
func (s *LocalSource) Delete(ctx context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return ctx.Err()
}

func (s *LocalSource) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// UploadName keeps the original base name and appends the upload time in milliseconds
func UploadName(originalName string, now time.Time) string {
	base := filepath.Base(originalName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "upload"
	}
	return fmt.Sprintf("%s_%d.csv", base, now.UnixMilli())
}

func readLimited(r io.Reader, name string, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", name, maxSize, ErrTooLarge)
	}
	return data, nil
}

func isCSV(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}

func sortNewestFirst(files []core.FileInfo) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})
}
