package expiry

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
)

var testToday = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func dateIn(days int) string {
	return testToday.AddDate(0, 0, days).Format("2006-01-02")
}

func testVehicles() []domain.Vehicle {
	return []domain.Vehicle{
		{ID: "v1", PlateNumber: "ABC-1234", Model: "Toyota Hilux"},
		{ID: "v2", PlateNumber: "XYZ-9876", Model: "Isuzu NPR"},
	}
}

func TestEvaluateExpiredPermitYesterday(t *testing.T) {
	snapshot := domain.Snapshot{
		Permits:  []domain.Permit{{ID: "p1", VehicleID: "v1", PermitType: domain.PermitDelegation, EndDate: dateIn(-1)}},
		Vehicles: testVehicles(),
	}

	for locale, wantTitle := range map[domain.Locale]string{
		domain.LocaleArabic:  "تفويض منتهي",
		domain.LocaleEnglish: "Expired Permit",
	} {
		feed, err := Evaluate(snapshot, testToday, locale)
		if err != nil {
			t.Fatalf("Evaluate(%s) error = %v", locale, err)
		}
		if len(feed.Notifications) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(feed.Notifications))
		}
		n := feed.Notifications[0]
		if n.ID != "permit-p1" {
			t.Fatalf("expected id permit-p1, got %s", n.ID)
		}
		if n.Status != domain.StatusExpired || n.DaysRemaining != -1 {
			t.Fatalf("expected expired/-1, got %s/%d", n.Status, n.DaysRemaining)
		}
		if n.Title != wantTitle {
			t.Fatalf("expected title %q, got %q", wantTitle, n.Title)
		}
		if !strings.Contains(n.Message, "1") {
			t.Fatalf("expected message to contain day count, got %q", n.Message)
		}
		if n.VehiclePlate != "ABC-1234" || n.VehicleModel != "Toyota Hilux" {
			t.Fatalf("unexpected vehicle snapshot %q/%q", n.VehiclePlate, n.VehicleModel)
		}
	}
}

func TestEvaluateMessagesUseAbsoluteDays(t *testing.T) {
	snapshot := domain.Snapshot{
		Permits:    []domain.Permit{{ID: "p1", VehicleID: "v1", EndDate: dateIn(-7)}},
		Insurances: []domain.Insurance{{ID: "i1", VehicleID: "v1", ExpiryDate: dateIn(12)}},
	}

	feed, err := Evaluate(snapshot, testToday, domain.LocaleEnglish)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got := feed.Notifications[0].Message; got != "expired 7 days ago" {
		t.Fatalf("unexpected expired message %q", got)
	}
	if got := feed.Notifications[1].Message; got != "expires in 12 days" {
		t.Fatalf("unexpected expiring message %q", got)
	}

	feed, err = Evaluate(snapshot, testToday, domain.LocaleArabic)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got := feed.Notifications[0].Message; got != "منتهي منذ 7 يوم" {
		t.Fatalf("unexpected arabic expired message %q", got)
	}
	if got := feed.Notifications[1].Message; got != "ينتهي خلال 12 يوم" {
		t.Fatalf("unexpected arabic expiring message %q", got)
	}
}

func TestEvaluateInsuranceExpiringInFifteenDays(t *testing.T) {
	feed, err := Evaluate(domain.Snapshot{
		Insurances: []domain.Insurance{{ID: "i1", VehicleID: "v2", ExpiryDate: dateIn(15)}},
		Vehicles:   testVehicles(),
	}, testToday, domain.LocaleEnglish)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if feed.TotalCount != 1 || feed.ExpiringSoonCount != 1 {
		t.Fatalf("unexpected counters %+v", feed)
	}
	n := feed.Notifications[0]
	if n.Status != domain.StatusExpiringSoon || n.DaysRemaining != 15 {
		t.Fatalf("expected expiring_soon/15, got %s/%d", n.Status, n.DaysRemaining)
	}
	if n.Title != "Insurance Expiring Soon" {
		t.Fatalf("unexpected title %q", n.Title)
	}
}

func TestEvaluateSkipsValidAndUndatedRecords(t *testing.T) {
	feed, err := Evaluate(domain.Snapshot{
		Permits: []domain.Permit{
			{ID: "p-actual", VehicleID: "v1", PermitType: domain.PermitActualUser, StartDate: "1999-01-01"},
		},
		OperatingCards: []domain.OperatingCard{{ID: "o1", VehicleID: "v1", ExpiryDate: dateIn(45)}},
		DriverCards:    []domain.DriverCard{{ID: "d1", VehicleID: "v1", ExpiryDate: dateIn(31)}},
		Vehicles:       testVehicles(),
	}, testToday, domain.LocaleArabic)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if feed.TotalCount != 0 || len(feed.Notifications) != 0 {
		t.Fatalf("expected empty feed, got %+v", feed)
	}
	if feed.Notifications == nil {
		t.Fatalf("expected empty, non-nil notification list")
	}
}

func TestEvaluateWindowBoundaries(t *testing.T) {
	feed, err := Evaluate(domain.Snapshot{
		DriverCards: []domain.DriverCard{
			{ID: "today", VehicleID: "v1", ExpiryDate: dateIn(0)},
			{ID: "edge", VehicleID: "v1", ExpiryDate: dateIn(30)},
			{ID: "outside", VehicleID: "v1", ExpiryDate: dateIn(31)},
		},
	}, testToday, domain.LocaleEnglish)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if feed.TotalCount != 2 {
		t.Fatalf("expected 2 notifications, got %d", feed.TotalCount)
	}
	if feed.Notifications[0].RecordID != "today" || feed.Notifications[0].DaysRemaining != 0 {
		t.Fatalf("expected record due today first with 0 days, got %+v", feed.Notifications[0])
	}
	if feed.Notifications[1].RecordID != "edge" || feed.Notifications[1].DaysRemaining != 30 {
		t.Fatalf("expected 30-day record second, got %+v", feed.Notifications[1])
	}
}

func TestEvaluateOrdersMostOverdueFirst(t *testing.T) {
	feed, err := Evaluate(domain.Snapshot{
		Insurances: []domain.Insurance{
			{ID: "soon", VehicleID: "v1", ExpiryDate: dateIn(3)},
			{ID: "one-day", VehicleID: "v1", ExpiryDate: dateIn(-1)},
		},
		DriverCards: []domain.DriverCard{
			{ID: "five-days", VehicleID: "v2", ExpiryDate: dateIn(-5)},
			{ID: "sooner", VehicleID: "v2", ExpiryDate: dateIn(1)},
		},
	}, testToday, domain.LocaleEnglish)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	want := []string{"driver-card-five-days", "insurance-one-day", "driver-card-sooner", "insurance-soon"}
	got := make([]string, 0, len(feed.Notifications))
	for _, n := range feed.Notifications {
		got = append(got, n.ID)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order %v, want %v", got, want)
	}
	if feed.ExpiredCount != 2 || feed.ExpiringSoonCount != 2 || feed.TotalCount != 4 {
		t.Fatalf("unexpected counters %+v", feed)
	}
}

func TestEvaluateTiesKeepInputOrder(t *testing.T) {
	feed, err := Evaluate(domain.Snapshot{
		Permits:        []domain.Permit{{ID: "b", VehicleID: "v1", EndDate: dateIn(-3)}, {ID: "a", VehicleID: "v1", EndDate: dateIn(-3)}},
		Insurances:     []domain.Insurance{{ID: "x", VehicleID: "v1", ExpiryDate: dateIn(-3)}},
		OperatingCards: []domain.OperatingCard{{ID: "y", VehicleID: "v1", ExpiryDate: dateIn(-3)}},
		DriverCards:    []domain.DriverCard{{ID: "z", VehicleID: "v1", ExpiryDate: dateIn(-3)}},
	}, testToday, domain.LocaleEnglish)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	want := []string{"permit-b", "permit-a", "insurance-x", "operating-card-y", "driver-card-z"}
	for i, id := range want {
		if feed.Notifications[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, feed.Notifications[i].ID)
		}
	}
}

func TestEvaluateUsesPlaceholderForUnknownVehicle(t *testing.T) {
	snapshot := domain.Snapshot{
		OperatingCards: []domain.OperatingCard{{ID: "o1", VehicleID: "ghost", ExpiryDate: dateIn(2)}},
		Vehicles:       testVehicles(),
	}

	ar, err := Evaluate(snapshot, testToday, domain.LocaleArabic)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if ar.Notifications[0].VehiclePlate != "غير محدد" || ar.Notifications[0].VehicleModel != "غير محدد" {
		t.Fatalf("unexpected arabic placeholder %+v", ar.Notifications[0])
	}

	en, err := Evaluate(snapshot, testToday, domain.LocaleEnglish)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if en.Notifications[0].VehiclePlate != "Unspecified" {
		t.Fatalf("unexpected english placeholder %q", en.Notifications[0].VehiclePlate)
	}
	if en.Notifications[0].VehicleID != "ghost" {
		t.Fatalf("expected vehicle id to be kept, got %q", en.Notifications[0].VehicleID)
	}
}

func TestEvaluateRejectsMalformedDate(t *testing.T) {
	_, err := Evaluate(domain.Snapshot{
		Permits:    []domain.Permit{{ID: "p1", VehicleID: "v1", EndDate: dateIn(-1)}},
		Insurances: []domain.Insurance{{ID: "i-bad", VehicleID: "v1", ExpiryDate: "31/12/2024"}},
	}, testToday, domain.LocaleEnglish)
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *domain.ValidationError, got %T", err)
	}
	if verr.Kind != domain.KindInsurance || verr.RecordID != "i-bad" || verr.Field != "expiry_date" {
		t.Fatalf("unexpected validation error fields %+v", verr)
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput kind, got %v", err)
	}
}

func TestEvaluateRejectsUnsupportedLocaleAndZeroToday(t *testing.T) {
	if _, err := Evaluate(domain.Snapshot{}, testToday, domain.Locale("fr")); !domain.IsKind(err, domain.ErrUnsupportedLocale) {
		t.Fatalf("expected unsupported locale error, got %v", err)
	}
	if _, err := Evaluate(domain.Snapshot{}, time.Time{}, domain.LocaleArabic); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for zero today, got %v", err)
	}
}

func mixedSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Permits: []domain.Permit{
			{ID: "p1", VehicleID: "v1", EndDate: dateIn(-10)},
			{ID: "p2", VehicleID: "v2", PermitType: domain.PermitActualUser},
			{ID: "p3", VehicleID: "v2", EndDate: dateIn(20)},
		},
		Insurances: []domain.Insurance{
			{ID: "i1", VehicleID: "v1", ExpiryDate: dateIn(5)},
			{ID: "i2", VehicleID: "v2", ExpiryDate: dateIn(-10)},
			{ID: "i3", VehicleID: "v3", ExpiryDate: dateIn(90)},
		},
		OperatingCards: []domain.OperatingCard{
			{ID: "o1", VehicleID: "v1", ExpiryDate: dateIn(0)},
			{ID: "o2", VehicleID: "v2", ExpiryDate: dateIn(-400)},
		},
		DriverCards: []domain.DriverCard{
			{ID: "d1", VehicleID: "v1", ExpiryDate: dateIn(5)},
			{ID: "d2", VehicleID: "v9", ExpiryDate: dateIn(-2)},
		},
		Vehicles: testVehicles(),
	}
}

func TestEvaluateFeedInvariants(t *testing.T) {
	feed, err := Evaluate(mixedSnapshot(), testToday, domain.LocaleArabic)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if feed.TotalCount != feed.ExpiredCount+feed.ExpiringSoonCount || feed.TotalCount != len(feed.Notifications) {
		t.Fatalf("counter mismatch: %+v (len=%d)", feed, len(feed.Notifications))
	}
	if feed.ExpiredCount != 4 || feed.ExpiringSoonCount != 4 {
		t.Fatalf("unexpected counters expired=%d soon=%d", feed.ExpiredCount, feed.ExpiringSoonCount)
	}

	for i := 1; i < len(feed.Notifications); i++ {
		a, b := feed.Notifications[i-1], feed.Notifications[i]
		if a.Status == domain.StatusExpiringSoon && b.Status == domain.StatusExpired {
			t.Fatalf("expiring_soon %s sorted before expired %s", a.ID, b.ID)
		}
		if a.Status == b.Status && a.DaysRemaining > b.DaysRemaining {
			t.Fatalf("%s (%d) sorted before %s (%d)", a.ID, a.DaysRemaining, b.ID, b.DaysRemaining)
		}
	}

	seen := make(map[string]bool)
	for _, n := range feed.Notifications {
		if seen[n.ID] {
			t.Fatalf("duplicate notification id %s", n.ID)
		}
		seen[n.ID] = true
		if n.Status == domain.StatusExpired && n.DaysRemaining >= 0 {
			t.Fatalf("expired %s has non-negative days %d", n.ID, n.DaysRemaining)
		}
	}
	if !feed.Today.Equal(testToday) || feed.Locale != domain.LocaleArabic {
		t.Fatalf("feed must echo today and locale, got %s/%s", feed.Today, feed.Locale)
	}
}

func TestEvaluateIsIdempotentAndDoesNotMutateInput(t *testing.T) {
	snapshot := mixedSnapshot()
	before := mixedSnapshot()

	first, err := Evaluate(snapshot, testToday, domain.LocaleEnglish)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	second, err := Evaluate(snapshot, testToday, domain.LocaleEnglish)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical feeds for identical input")
	}
	if !reflect.DeepEqual(snapshot, before) {
		t.Fatalf("input snapshot was mutated")
	}
}
