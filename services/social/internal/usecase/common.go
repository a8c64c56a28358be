package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chronofeed/pkg/apperror"
	"chronofeed/pkg/logger"
	"chronofeed/pkg/queue"
	"chronofeed/services/social/internal/repo/persistent"

	"github.com/google/uuid"
)

// BlobStorage is the object store images are written to.
type BlobStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Limits bounds request sizes and the work of one feed assembly.
type Limits struct {
	UploadMaxBytes    int64
	ImageMaxDimension int
	FeedMaxScan       int
}

func DefaultLimits() Limits {
	return Limits{UploadMaxBytes: 10 << 20, ImageMaxDimension: 2048, FeedMaxScan: 1000}
}

const (
	maxTextLength     = 2000
	maxCaptionLength  = 500
	maxCommentLength  = 300
	maxBioLength      = 160
	maxDisplayNameLen = 50
)

// newID builds IDs such as text_1700000000000_3f9a1c2b7 whose prefix and
// timestamp make them traceable in the store.
func newID(prefix string, t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s_%d_%s", prefix, t.UnixMilli(), suffix)
}

func isNotFound(err error) bool {
	return errors.Is(err, persistent.ErrNotFound)
}

// lookup converts a repository error into the service taxonomy.
func lookup(err error, resource string) error {
	if isNotFound(err) {
		return apperror.NotFound(resource)
	}
	return apperror.Upstream("get "+resource, err)
}

// publish sends an event without failing the caller; the write it
// describes has already happened.
func publish(ctx context.Context, pub queue.Publisher, log *logger.Logger, routingKey string, data map[string]string) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, routingKey, data); err != nil {
		log.Warn("Failed to publish %s event: %v", routingKey, err)
	}
}
