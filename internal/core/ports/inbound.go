package ports

import (
	"context"
	"time"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
)

// NotificationService is the inbound contract for the expiry notification feed.
type NotificationService interface {
	Feed(ctx context.Context, locale domain.Locale) (domain.Feed, error)
	VehicleFeed(ctx context.Context, vehicleID string, locale domain.Locale) (domain.Feed, error)
	Badge(ctx context.Context) (domain.Badge, error)
	Evaluate(ctx context.Context, snapshot domain.Snapshot, today time.Time, locale domain.Locale) (domain.Feed, error)
}

// DigestService is the inbound contract for periodic digest publication.
type DigestService interface {
	PublishDigest(ctx context.Context) (domain.Digest, error)
}
