package ports

import (
	"context"
	"time"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
)

// SnapshotSource reads the document collections and vehicles maintained by
// the CRUD screens.
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context) (domain.Snapshot, error)
}

// DigestPublisher delivers feed digests to downstream subscribers.
type DigestPublisher interface {
	PublishDigest(ctx context.Context, digest domain.Digest) error
}

// EvaluationObserver records the outcome of each evaluation pass.
type EvaluationObserver interface {
	ObserveEvaluation(source string, feed domain.Feed, duration time.Duration, err error)
}
