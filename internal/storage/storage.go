// Package storage reads and writes pipeline artifacts by location. Plain
// paths and file:// URLs go through afs; s3://bucket/key goes through the
// AWS SDK.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
)

const s3Scheme = "s3://"

// ErrNoLocation is returned for an empty location.
var ErrNoLocation = errors.New("storage: empty location")

// Artifacts reads and writes artifacts. The S3 client is created on first
// use so local runs never need AWS configuration.
type Artifacts struct {
	fs afs.Service

	once  sync.Once
	s3    *s3.Client
	s3Err error
	newS3 func(ctx context.Context) (*s3.Client, error)
}

// New returns an Artifacts using NewS3Client for s3:// locations.
func New() *Artifacts {
	return &Artifacts{fs: afs.New(), newS3: NewS3Client}
}

// NewWithS3 returns an Artifacts using the given S3 client.
func NewWithS3(client *s3.Client) *Artifacts {
	a := New()
	a.s3 = client
	a.once.Do(func() {})
	return a
}

func (a *Artifacts) s3Client(ctx context.Context) (*s3.Client, error) {
	a.once.Do(func() {
		a.s3, a.s3Err = a.newS3(ctx)
	})
	return a.s3, a.s3Err
}

// normalize turns a plain path into a file URL.
func normalize(location string) string {
	if strings.Contains(location, "://") {
		return location
	}
	return url.Normalize(location, file.Scheme)
}

// Read returns the content at location.
func (a *Artifacts) Read(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, ErrNoLocation
	}
	if strings.HasPrefix(location, s3Scheme) {
		client, err := a.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		return getObject(ctx, client, location)
	}
	data, err := a.fs.DownloadWithURL(ctx, normalize(location))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

// Write stores data at location, creating parent directories as needed.
func (a *Artifacts) Write(ctx context.Context, location string, data []byte) error {
	if location == "" {
		return ErrNoLocation
	}
	if strings.HasPrefix(location, s3Scheme) {
		client, err := a.s3Client(ctx)
		if err != nil {
			return err
		}
		if err := putObject(ctx, client, location, data); err != nil {
			return err
		}
	} else if err := a.fs.Upload(ctx, normalize(location), os.FileMode(0o644), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", location, err)
	}
	logger.Debug("[Store] Artifact written", "location", location, "bytes", len(data))
	return nil
}
