package domain

// DocumentKind tags the four compliance document collections.
type DocumentKind string

const (
	KindPermit        DocumentKind = "permit"
	KindInsurance     DocumentKind = "insurance"
	KindOperatingCard DocumentKind = "operating-card"
	KindDriverCard    DocumentKind = "driver-card"
)

// DocumentKinds lists the kinds in feed input order.
var DocumentKinds = []DocumentKind{KindPermit, KindInsurance, KindOperatingCard, KindDriverCard}

type PermitType string

const (
	// PermitActualUser is permanent and carries no end date.
	PermitActualUser PermitType = "actual_user"
	PermitDelegation PermitType = "delegation"
)

// Dates are calendar dates ("2006-01-02"); an empty string means no date.

type Permit struct {
	ID         string     `json:"id" yaml:"id"`
	VehicleID  string     `json:"vehicle_id" yaml:"vehicle_id"`
	PermitType PermitType `json:"permit_type" yaml:"permit_type"`
	HolderName string     `json:"holder_name,omitempty" yaml:"holder_name"`
	StartDate  string     `json:"start_date,omitempty" yaml:"start_date"`
	EndDate    string     `json:"end_date,omitempty" yaml:"end_date"`
}

type Insurance struct {
	ID           string `json:"id" yaml:"id"`
	VehicleID    string `json:"vehicle_id" yaml:"vehicle_id"`
	Company      string `json:"company,omitempty" yaml:"company"`
	PolicyNumber string `json:"policy_number,omitempty" yaml:"policy_number"`
	StartDate    string `json:"start_date,omitempty" yaml:"start_date"`
	ExpiryDate   string `json:"expiry_date,omitempty" yaml:"expiry_date"`
}

type OperatingCard struct {
	ID         string `json:"id" yaml:"id"`
	VehicleID  string `json:"vehicle_id" yaml:"vehicle_id"`
	CardNumber string `json:"card_number,omitempty" yaml:"card_number"`
	IssueDate  string `json:"issue_date,omitempty" yaml:"issue_date"`
	ExpiryDate string `json:"expiry_date,omitempty" yaml:"expiry_date"`
}

type DriverCard struct {
	ID         string `json:"id" yaml:"id"`
	VehicleID  string `json:"vehicle_id" yaml:"vehicle_id"`
	DriverName string `json:"driver_name,omitempty" yaml:"driver_name"`
	CardNumber string `json:"card_number,omitempty" yaml:"card_number"`
	IssueDate  string `json:"issue_date,omitempty" yaml:"issue_date"`
	ExpiryDate string `json:"expiry_date,omitempty" yaml:"expiry_date"`
}

// Snapshot is one consistent read of the document collections and the fleet.
// Order inside each slice is insertion order.
type Snapshot struct {
	Permits        []Permit        `json:"permits" yaml:"permits"`
	Insurances     []Insurance     `json:"insurances" yaml:"insurances"`
	OperatingCards []OperatingCard `json:"operating_cards" yaml:"operating_cards"`
	DriverCards    []DriverCard    `json:"driver_cards" yaml:"driver_cards"`
	Vehicles       []Vehicle       `json:"vehicles" yaml:"vehicles"`
}
