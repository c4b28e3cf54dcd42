// Package archive stores produced export artifacts and backups in a blob
// store. Keys are slash separated, e.g. exports/2024-05-01/title_guest_v2024-05-01.html.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/tztw/projectmap/config"
)

type Driver string

const (
	DriverMemory     Driver = "memory"
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

const (
	ExportsPrefix = "exports/"
	BackupsPrefix = "backups/"
)

var (
	ErrNotFound = errors.New("archive: object not found")
	ErrExists   = errors.New("archive: object already exists")
)

// Info describes a stored artifact.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	Driver() Driver
}

// ExportKey returns the key an export artifact named filename is archived
// under on day t.
func ExportKey(t time.Time, filename string) string {
	return path.Join("exports", t.Format("2006-01-02"), filename)
}

// BackupKey returns the key of a scheduled backup taken at t.
func BackupKey(t time.Time) string {
	return path.Join("backups", fmt.Sprintf("tztw_backup_%s.json", t.UTC().Format("20060102T150405Z")))
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg *config.ArchiveConfig) (Store, error) {
	switch Driver(cfg.Driver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFilesystem, "":
		return NewFS(cfg.Dir)
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			PathStyle:       cfg.PathStyle,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}
}
