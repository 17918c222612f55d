package printing

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"
)

// ArchiveRequest identifies one rendered result to keep
type ArchiveRequest struct {
	JobID  uuid.UUID
	Result *Result
	// Time places the file in its {year}/{month} folder
	Time time.Time
}

// Archive keeps a copy of printed output
type Archive interface {
	// Store saves the result and returns its archive path
	Store(ctx context.Context, req *ArchiveRequest) (string, error)
}

// archivePath returns {year}/{month}/{job}.{ext}, always slash separated
func archivePath(req *ArchiveRequest) string {
	ext := req.Result.Extension
	if ext == "" {
		ext = "bin"
	}
	return path.Join(
		fmt.Sprintf("%04d", req.Time.Year()),
		fmt.Sprintf("%02d", int(req.Time.Month())),
		req.JobID.String()+"."+ext,
	)
}

func validateArchiveRequest(ctx context.Context, req *ArchiveRequest) error {
	if err := ctx.Err(); err != nil {
		return NewRenderError(ErrCodeArchiveFailed, "operation cancelled", err)
	}
	if req == nil || req.Result == nil {
		return NewRenderError(ErrCodeArchiveFailed, "archive request is empty", nil)
	}
	if req.JobID == uuid.Nil {
		return NewRenderError(ErrCodeArchiveFailed, "job ID is required", nil)
	}
	if len(req.Result.Data) == 0 {
		return NewRenderError(ErrCodeArchiveFailed, "result data is empty", nil)
	}
	if req.Time.IsZero() {
		req.Time = time.Now()
	}
	return nil
}

// FileSystemArchive stores printed output under a local directory
type FileSystemArchive struct {
	basePath string
	logger   *zap.Logger
}

// NewFileSystemArchive creates the base directory if needed
func NewFileSystemArchive(basePath string, logger *zap.Logger) (*FileSystemArchive, error) {
	if basePath == "" {
		return nil, NewRenderError(ErrCodeArchiveFailed, "archive directory is required", nil)
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, NewRenderError(ErrCodeArchiveFailed,
			fmt.Sprintf("failed to create archive directory: %s", basePath), err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSystemArchive{basePath: basePath, logger: logger}, nil
}

// Store implements Archive
func (a *FileSystemArchive) Store(ctx context.Context, req *ArchiveRequest) (string, error) {
	if err := validateArchiveRequest(ctx, req); err != nil {
		return "", err
	}

	rel := archivePath(req)
	full := filepath.Join(a.basePath, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", NewRenderError(ErrCodeArchiveFailed, "failed to create directory", err)
	}
	if err := atomic.WriteFile(full, bytes.NewReader(req.Result.Data)); err != nil {
		return "", NewRenderError(ErrCodeArchiveFailed, "failed to write archive file", err)
	}

	a.logger.Info("Print archived",
		zap.String("path", full),
		zap.Int("size", len(req.Result.Data)))
	return rel, nil
}

// ObjectWriter uploads one object. storage.S3ObjectStorage satisfies it.
type ObjectWriter interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// ObjectArchive stores printed output in an object store under a prefix
type ObjectArchive struct {
	store  ObjectWriter
	prefix string
	logger *zap.Logger
}

// NewObjectArchive creates an ObjectArchive
func NewObjectArchive(store ObjectWriter, prefix string, logger *zap.Logger) *ObjectArchive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObjectArchive{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// Store implements Archive
func (a *ObjectArchive) Store(ctx context.Context, req *ArchiveRequest) (string, error) {
	if err := validateArchiveRequest(ctx, req); err != nil {
		return "", err
	}

	key := archivePath(req)
	if a.prefix != "" {
		key = a.prefix + "/" + key
	}
	if err := a.store.PutObject(ctx, key, req.Result.Data, req.Result.ContentType); err != nil {
		return "", NewRenderError(ErrCodeArchiveFailed, "failed to upload archive object", err)
	}

	a.logger.Info("Print archived",
		zap.String("key", key),
		zap.Int("size", len(req.Result.Data)))
	return key, nil
}

var (
	_ Archive = (*FileSystemArchive)(nil)
	_ Archive = (*ObjectArchive)(nil)
)
