package domain

import "time"

type ExpiryStatus string

const (
	StatusValid        ExpiryStatus = "valid"
	StatusExpiringSoon ExpiryStatus = "expiring_soon"
	StatusExpired      ExpiryStatus = "expired"
)

// Notification is a derived projection of one expired or soon-to-expire record.
type Notification struct {
	ID            string       `json:"id"`
	Kind          DocumentKind `json:"kind"`
	RecordID      string       `json:"record_id"`
	VehicleID     string       `json:"vehicle_id"`
	VehiclePlate  string       `json:"vehicle_plate"`
	VehicleModel  string       `json:"vehicle_model"`
	Status        ExpiryStatus `json:"status"`
	ExpiryDate    string       `json:"expiry_date"`
	DaysRemaining int          `json:"days_remaining"`
	Title         string       `json:"title"`
	Message       string       `json:"message"`
}

// Feed is the ordered notification list plus the badge counters.
type Feed struct {
	Notifications     []Notification `json:"notifications"`
	ExpiredCount      int            `json:"expired_count"`
	ExpiringSoonCount int            `json:"expiring_soon_count"`
	TotalCount        int            `json:"total_count"`
	Today             time.Time      `json:"today"`
	Locale            Locale         `json:"locale"`
}

type Badge struct {
	Visible bool   `json:"visible"`
	Label   string `json:"label"`
	Count   int    `json:"count"`
}

// Digest is the event published after a scheduled evaluation.
type Digest struct {
	EventID           string         `json:"event_id"`
	GeneratedAt       time.Time      `json:"generated_at"`
	Locale            Locale         `json:"locale"`
	ExpiredCount      int            `json:"expired_count"`
	ExpiringSoonCount int            `json:"expiring_soon_count"`
	TotalCount        int            `json:"total_count"`
	Notifications     []Notification `json:"notifications"`
}
