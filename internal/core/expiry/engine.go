// Package expiry turns dated compliance records into a prioritized,
// localized notification feed. Evaluation is pure: the caller supplies the
// snapshot, the reference instant and the locale.
package expiry

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
)

// descriptor tells the synthesizer how to read one document kind.
type descriptor[T any] struct {
	kind      domain.DocumentKind
	dateField string
	fields    func(T) (id, vehicleID, expiry string)
}

var (
	permitDescriptor = descriptor[domain.Permit]{
		kind:      domain.KindPermit,
		dateField: "end_date",
		fields:    func(r domain.Permit) (string, string, string) { return r.ID, r.VehicleID, r.EndDate },
	}
	insuranceDescriptor = descriptor[domain.Insurance]{
		kind:      domain.KindInsurance,
		dateField: "expiry_date",
		fields:    func(r domain.Insurance) (string, string, string) { return r.ID, r.VehicleID, r.ExpiryDate },
	}
	operatingCardDescriptor = descriptor[domain.OperatingCard]{
		kind:      domain.KindOperatingCard,
		dateField: "expiry_date",
		fields:    func(r domain.OperatingCard) (string, string, string) { return r.ID, r.VehicleID, r.ExpiryDate },
	}
	driverCardDescriptor = descriptor[domain.DriverCard]{
		kind:      domain.KindDriverCard,
		dateField: "expiry_date",
		fields:    func(r domain.DriverCard) (string, string, string) { return r.ID, r.VehicleID, r.ExpiryDate },
	}
)

// pass holds the state shared by one evaluation.
type pass struct {
	today    time.Time
	locale   domain.Locale
	vehicles map[string]domain.Vehicle
	out      []domain.Notification
}

// Evaluate classifies every record against today, builds notifications for
// expired and expiring-soon records, and returns them globally ordered with
// the badge counters. Malformed dates fail with *domain.ValidationError.
func Evaluate(s domain.Snapshot, today time.Time, locale domain.Locale) (domain.Feed, error) {
	if !slices.Contains(domain.SupportedLocales, locale) {
		return domain.Feed{}, domain.WrapError(domain.ErrUnsupportedLocale, "evaluate", fmt.Errorf("locale=%q", locale))
	}
	if today.IsZero() {
		return domain.Feed{}, domain.WrapError(domain.ErrInvalidInput, "evaluate", errors.New("reference date is required"))
	}

	p := &pass{
		today:    today,
		locale:   locale,
		vehicles: indexVehicles(s.Vehicles),
	}
	if err := synthesize(p, permitDescriptor, s.Permits); err != nil {
		return domain.Feed{}, err
	}
	if err := synthesize(p, insuranceDescriptor, s.Insurances); err != nil {
		return domain.Feed{}, err
	}
	if err := synthesize(p, operatingCardDescriptor, s.OperatingCards); err != nil {
		return domain.Feed{}, err
	}
	if err := synthesize(p, driverCardDescriptor, s.DriverCards); err != nil {
		return domain.Feed{}, err
	}

	feed := aggregate(p.out)
	feed.Today = today
	feed.Locale = locale
	return feed, nil
}

func indexVehicles(vehicles []domain.Vehicle) map[string]domain.Vehicle {
	index := make(map[string]domain.Vehicle, len(vehicles))
	for _, v := range vehicles {
		if _, seen := index[v.ID]; !seen {
			index[v.ID] = v
		}
	}
	return index
}

func synthesize[T any](p *pass, d descriptor[T], records []T) error {
	for _, record := range records {
		id, vehicleID, rawExpiry := d.fields(record)

		expiry, ok, err := ParseDate(rawExpiry, p.today.Location())
		if err != nil {
			return &domain.ValidationError{
				Kind:     d.kind,
				RecordID: id,
				Field:    d.dateField,
				Value:    rawExpiry,
				Err:      err,
			}
		}
		if !ok {
			continue
		}

		days, status := Classify(expiry, p.today)
		if status == domain.StatusValid {
			continue
		}
		p.out = append(p.out, p.notification(d.kind, id, vehicleID, rawExpiry, days, status))
	}
	return nil
}

func (p *pass) notification(
	kind domain.DocumentKind,
	recordID, vehicleID, expiryDate string,
	days int,
	status domain.ExpiryStatus,
) domain.Notification {
	plate, model := texts.placeholder(p.locale), texts.placeholder(p.locale)
	if v, ok := p.vehicles[vehicleID]; ok {
		plate, model = v.PlateNumber, v.Model
	}

	shown := days
	if status == domain.StatusExpired {
		shown = -days
	}

	return domain.Notification{
		ID:            fmt.Sprintf("%s-%s", kind, recordID),
		Kind:          kind,
		RecordID:      recordID,
		VehicleID:     vehicleID,
		VehiclePlate:  plate,
		VehicleModel:  model,
		Status:        status,
		ExpiryDate:    expiryDate,
		DaysRemaining: days,
		Title:         texts.title(kind, status, p.locale),
		Message:       texts.message(status, p.locale, shown),
	}
}
