package model

import (
	"context"
	"io"
)

// ReportStorage archives distribution reports as objects.
type ReportStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}
