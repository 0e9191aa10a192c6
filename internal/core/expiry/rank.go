package expiry

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
)

// BadgeOverflow is shown once the count no longer fits a single digit.
const BadgeOverflow = "9+"

func statusRank(s domain.ExpiryStatus) int {
	if s == domain.StatusExpired {
		return 0
	}
	return 1
}

// compareNotifications orders expired before expiring_soon, then by
// ascending days remaining.
func compareNotifications(a, b domain.Notification) int {
	if c := cmp.Compare(statusRank(a.Status), statusRank(b.Status)); c != 0 {
		return c
	}
	return cmp.Compare(a.DaysRemaining, b.DaysRemaining)
}

// aggregate sorts in place with a stable sort so equal keys keep input order.
func aggregate(notifications []domain.Notification) domain.Feed {
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	slices.SortStableFunc(notifications, compareNotifications)

	feed := domain.Feed{Notifications: notifications}
	for _, n := range notifications {
		switch n.Status {
		case domain.StatusExpired:
			feed.ExpiredCount++
		case domain.StatusExpiringSoon:
			feed.ExpiringSoonCount++
		}
	}
	feed.TotalCount = feed.ExpiredCount + feed.ExpiringSoonCount
	return feed
}

// BadgeFor derives the bell indicator: hidden at zero, "9+" above nine.
func BadgeFor(total int) domain.Badge {
	if total <= 0 {
		return domain.Badge{}
	}
	label := strconv.Itoa(total)
	if total > 9 {
		label = BadgeOverflow
	}
	return domain.Badge{Visible: true, Label: label, Count: total}
}

// FilterByVehicle narrows a feed to one vehicle and recounts it. The global
// order is preserved.
func FilterByVehicle(feed domain.Feed, vehicleID string) domain.Feed {
	kept := make([]domain.Notification, 0)
	for _, n := range feed.Notifications {
		if n.VehicleID == vehicleID {
			kept = append(kept, n)
		}
	}
	out := aggregate(kept)
	out.Today = feed.Today
	out.Locale = feed.Locale
	return out
}
