package service

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"gallery/internal/apperror"
	"gallery/internal/ids"
)

const uploadKeyPrefix = "uploads/"

type UploadPresigner interface {
	PresignUpload(ctx context.Context, objectKey string, ttl time.Duration) (*url.URL, error)
}

type UploadTicket struct {
	URL       string
	ObjectKey string
	ExpiresAt time.Time
}

// ImageService hands out direct-to-storage upload URLs. File bytes never
// pass through the API.
type ImageService struct {
	store UploadPresigner
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

func NewImageService(store UploadPresigner, ttl time.Duration, log zerolog.Logger) *ImageService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ImageService{store: store, ttl: ttl, now: time.Now, log: log}
}

func (s *ImageService) UploadURL(ctx context.Context, accountID int64) (UploadTicket, error) {
	if s.store == nil {
		return UploadTicket{}, apperror.Internal(errors.New("object storage not configured"))
	}

	key := uploadKeyPrefix + ids.New()
	expiresAt := s.now().Add(s.ttl)
	u, err := s.store.PresignUpload(ctx, key, s.ttl)
	if err != nil {
		return UploadTicket{}, apperror.Internal(errors.Wrap(err, "presign upload"))
	}

	s.log.Debug().Int64("account_id", accountID).Str("object_key", key).Msg("upload url issued")
	return UploadTicket{
		URL:       u.String(),
		ObjectKey: key,
		ExpiresAt: expiresAt,
	}, nil
}
