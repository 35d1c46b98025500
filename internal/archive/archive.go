// Package archive keeps a copy of every raw upload so an import can be
// audited or replayed later.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const contentType = "text/csv; charset=utf-8"

// Archiver stores raw uploads under a key and returns where they went.
type Archiver interface {
	// Put stores data under key. It returns the stored key, or "" when
	// archiving is disabled.
	Put(ctx context.Context, key string, data []byte) (string, error)

	// Get returns the stored bytes for key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Key builds the archive key for an import.
func Key(skillTestID, importID string) string {
	return path.Join("imports", safeSegment(skillTestID), importID+".csv")
}

// safeSegment keeps a caller-supplied id from escaping its directory.
func safeSegment(s string) string {
	s = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
	if s == "" {
		return "_"
	}
	return s
}

// Config selects and configures the archive backend.
type Config struct {
	// Type is "none", "local" or "minio".
	Type string

	LocalPath string
	MinIO     MinIOConfig
}

// MinIOConfig holds MinIO/S3 connection settings.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// DefaultConfig disables archiving.
func DefaultConfig() Config {
	return Config{
		Type:      "none",
		LocalPath: "archive",
		MinIO:     MinIOConfig{Region: "us-east-1"},
	}
}

// New builds the Archiver selected by cfg.
func New(cfg Config) (Archiver, error) {
	switch cfg.Type {
	case "", "none":
		return Nop{}, nil
	case "local":
		return NewLocal(cfg.LocalPath)
	case "minio":
		return NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown archive type: %q", cfg.Type)
	}
}

// Nop discards uploads.
type Nop struct{}

func (Nop) Put(context.Context, string, []byte) (string, error) { return "", nil }

func (Nop) Get(_ context.Context, key string) ([]byte, error) {
	return nil, fmt.Errorf("archive disabled: %s not stored", key)
}

func (Nop) Delete(context.Context, string) error { return nil }

// Local writes uploads below a root directory.
type Local struct {
	root string
}

// NewLocal creates a Local archiver, creating root if needed.
func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("local archive path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &Local{root: root}, nil
}

func (l *Local) Put(_ context.Context, key string, data []byte) (string, error) {
	dst := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive file: %w", err)
	}
	return key, nil
}

func (l *Local) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("read archive file: %w", err)
	}
	return data, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove archive file: %w", err)
	}
	return nil
}

// MinIO writes uploads to a MinIO or S3-compatible bucket.
type MinIO struct {
	client *minio.Client
	bucket string
}

// NewMinIO creates a MinIO archiver. The bucket must already exist.
func NewMinIO(cfg MinIOConfig) (*MinIO, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIO{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinIO) Put(ctx context.Context, key string, data []byte) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

func (m *MinIO) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

func (m *MinIO) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}
