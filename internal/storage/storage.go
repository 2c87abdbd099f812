// Package storage keeps uploaded documents on local disk.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"crowdfund/internal/apperr"
)

// DocumentStorage saves a file and returns a link to it.
type DocumentStorage interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

type Disk struct {
	dir     string
	baseURL string
}

func NewDisk(dir, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	return &Disk{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes data under a fresh uuid name, keeping the original extension.
func (d *Disk) Save(ctx context.Context, name string, data []byte) (string, error) {
	const op = "storage.Save"
	if err := ctx.Err(); err != nil {
		return "", apperr.Wrap(apperr.Internal, apperr.CodeStorage, op, err)
	}
	fileName := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(name)))
	if err := os.WriteFile(filepath.Join(d.dir, fileName), data, 0o644); err != nil {
		return "", apperr.Wrap(apperr.Internal, apperr.CodeStorage, op, err)
	}
	return path.Join(d.baseURL, fileName), nil
}

// Dir is served as static content by the HTTP layer.
func (d *Disk) Dir() string { return d.dir }
