package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
	"github.com/kirillkom/fleet-compliance/internal/core/ports"
)

type DigestUseCase struct {
	feeds     ports.NotificationService
	publisher ports.DigestPublisher
	locale    domain.Locale
}

func NewDigestUseCase(
	feeds ports.NotificationService,
	publisher ports.DigestPublisher,
	locale domain.Locale,
) *DigestUseCase {
	return &DigestUseCase{
		feeds:     feeds,
		publisher: publisher,
		locale:    locale,
	}
}

// PublishDigest recomputes the feed and publishes it as one event.
func (uc *DigestUseCase) PublishDigest(ctx context.Context) (domain.Digest, error) {
	feed, err := uc.feeds.Feed(ctx, uc.locale)
	if err != nil {
		return domain.Digest{}, fmt.Errorf("build feed: %w", err)
	}

	digest := domain.Digest{
		EventID:           uuid.NewString(),
		GeneratedAt:       feed.Today,
		Locale:            feed.Locale,
		ExpiredCount:      feed.ExpiredCount,
		ExpiringSoonCount: feed.ExpiringSoonCount,
		TotalCount:        feed.TotalCount,
		Notifications:     feed.Notifications,
	}
	if err := uc.publisher.PublishDigest(ctx, digest); err != nil {
		return domain.Digest{}, fmt.Errorf("publish digest: %w", err)
	}

	slog.Info("digest_published",
		"event_id", digest.EventID,
		"locale", digest.Locale,
		"expired", digest.ExpiredCount,
		"expiring_soon", digest.ExpiringSoonCount,
	)
	return digest, nil
}
