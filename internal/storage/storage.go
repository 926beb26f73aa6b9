package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the S3-compatible operations the replenishment jobs need.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadFile(ctx context.Context, key, localPath, contentType string) error
}

// DownloadPrefix mirrors every forecast input under prefix into destDir and returns the
// local paths. Keys that are not .csv or .xlsx are ignored.
func DownloadPrefix(ctx context.Context, store ObjectStorage, prefix, destDir string) ([]string, error) {
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	var files []string
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, "/") || !isForecastInput(obj.Key) {
			continue
		}
		dest := filepath.Join(destDir, path.Base(obj.Key))
		if err := store.DownloadObject(ctx, obj.Key, dest); err != nil {
			return files, fmt.Errorf("download %s: %w", obj.Key, err)
		}
		files = append(files, dest)
	}
	return files, nil
}

func isForecastInput(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}
