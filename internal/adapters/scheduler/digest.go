// Package scheduler drives periodic digest publication for the worker.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/fleet-compliance/internal/core/ports"
)

type RunRecorder interface {
	StartDigest()
	FinishDigest(service string, duration time.Duration, err error)
}

type DigestLoop struct {
	service    ports.DigestService
	recorder   RunRecorder
	interval   time.Duration
	runTimeout time.Duration
	name       string
}

func NewDigestLoop(service ports.DigestService, recorder RunRecorder, interval time.Duration) *DigestLoop {
	if interval <= 0 {
		interval = time.Minute
	}
	return &DigestLoop{
		service:    service,
		recorder:   recorder,
		interval:   interval,
		runTimeout: interval,
		name:       "worker",
	}
}

// Run publishes one digest immediately and then once per interval until ctx
// is done. A failed run is logged and retried on the next tick.
func (l *DigestLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		l.runOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (l *DigestLoop) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, l.runTimeout)
	defer cancel()

	if l.recorder != nil {
		l.recorder.StartDigest()
	}
	start := time.Now()
	digest, err := l.service.PublishDigest(runCtx)
	duration := time.Since(start)
	if l.recorder != nil {
		l.recorder.FinishDigest(l.name, duration, err)
	}

	if err != nil {
		slog.Error("digest_run_failed", "error", err, "duration_ms", float64(duration.Microseconds())/1000.0)
		return
	}
	slog.Info("digest_run_completed",
		"event_id", digest.EventID,
		"total", digest.TotalCount,
		"duration_ms", float64(duration.Microseconds())/1000.0,
	)
}
