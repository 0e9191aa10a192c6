package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
	"github.com/kirillkom/fleet-compliance/internal/core/expiry"
	"github.com/kirillkom/fleet-compliance/internal/core/ports"
)

const (
	sourceSnapshot = "snapshot"
	sourceAdHoc    = "adhoc"
)

type NotificationUseCase struct {
	source        ports.SnapshotSource
	observer      ports.EvaluationObserver
	clock         func() time.Time
	defaultLocale domain.Locale
}

func NewNotificationUseCase(
	source ports.SnapshotSource,
	observer ports.EvaluationObserver,
	clock func() time.Time,
	defaultLocale domain.Locale,
) *NotificationUseCase {
	if clock == nil {
		clock = time.Now
	}
	if defaultLocale == "" {
		defaultLocale = domain.LocaleArabic
	}
	return &NotificationUseCase{
		source:        source,
		observer:      observer,
		clock:         clock,
		defaultLocale: defaultLocale,
	}
}

// Feed loads the current snapshot and evaluates it against a single reading
// of the clock.
func (uc *NotificationUseCase) Feed(ctx context.Context, locale domain.Locale) (domain.Feed, error) {
	_, feed, err := uc.evaluateCurrent(ctx, locale)
	return feed, err
}

// VehicleFeed is Feed narrowed to one vehicle. Unknown vehicles fail with
// domain.ErrVehicleNotFound.
func (uc *NotificationUseCase) VehicleFeed(ctx context.Context, vehicleID string, locale domain.Locale) (domain.Feed, error) {
	vehicleID = strings.TrimSpace(vehicleID)
	if vehicleID == "" {
		return domain.Feed{}, domain.WrapError(domain.ErrInvalidInput, "vehicle feed", errors.New("vehicle id is required"))
	}

	snapshot, feed, err := uc.evaluateCurrent(ctx, locale)
	if err != nil {
		return domain.Feed{}, err
	}
	if !slices.ContainsFunc(snapshot.Vehicles, func(v domain.Vehicle) bool { return v.ID == vehicleID }) {
		return domain.Feed{}, domain.WrapError(domain.ErrVehicleNotFound, "vehicle feed", fmt.Errorf("id=%s", vehicleID))
	}
	return expiry.FilterByVehicle(feed, vehicleID), nil
}

func (uc *NotificationUseCase) evaluateCurrent(ctx context.Context, locale domain.Locale) (domain.Snapshot, domain.Feed, error) {
	today := uc.clock()
	if locale == "" {
		locale = uc.defaultLocale
	}

	start := time.Now()
	snapshot, err := uc.source.LoadSnapshot(ctx)
	if err != nil {
		err = fmt.Errorf("load snapshot: %w", err)
		uc.observe(sourceSnapshot, domain.Feed{}, time.Since(start), err)
		return domain.Snapshot{}, domain.Feed{}, err
	}

	feed, err := expiry.Evaluate(snapshot, today, locale)
	uc.observe(sourceSnapshot, feed, time.Since(start), err)
	if err != nil {
		return domain.Snapshot{}, domain.Feed{}, fmt.Errorf("evaluate snapshot: %w", err)
	}
	return snapshot, feed, nil
}

func (uc *NotificationUseCase) Badge(ctx context.Context) (domain.Badge, error) {
	feed, err := uc.Feed(ctx, uc.defaultLocale)
	if err != nil {
		return domain.Badge{}, err
	}
	return expiry.BadgeFor(feed.TotalCount), nil
}

// Evaluate runs the engine over a caller-supplied snapshot. A zero today
// falls back to the clock.
func (uc *NotificationUseCase) Evaluate(
	_ context.Context,
	snapshot domain.Snapshot,
	today time.Time,
	locale domain.Locale,
) (domain.Feed, error) {
	if today.IsZero() {
		today = uc.clock()
	}
	if locale == "" {
		locale = uc.defaultLocale
	}

	start := time.Now()
	feed, err := expiry.Evaluate(snapshot, today, locale)
	uc.observe(sourceAdHoc, feed, time.Since(start), err)
	if err != nil {
		return domain.Feed{}, err
	}
	return feed, nil
}

func (uc *NotificationUseCase) observe(source string, feed domain.Feed, duration time.Duration, err error) {
	if uc.observer != nil {
		uc.observer.ObserveEvaluation(source, feed, duration, err)
	}
	if err != nil {
		slog.Warn("expiry_evaluation_failed", "source", source, "error", err)
		return
	}
	slog.Debug("expiry_evaluated",
		"source", source,
		"locale", feed.Locale,
		"expired", feed.ExpiredCount,
		"expiring_soon", feed.ExpiringSoonCount,
		"total", feed.TotalCount,
		"duration_ms", float64(duration.Microseconds())/1000.0,
	)
}
