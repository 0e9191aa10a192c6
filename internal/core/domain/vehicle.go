package domain

type Vehicle struct {
	ID          string `json:"id" yaml:"id"`
	PlateNumber string `json:"plate_number" yaml:"plate_number"`
	Model       string `json:"model" yaml:"model"`
	Year        int    `json:"year,omitempty" yaml:"year"`
}
