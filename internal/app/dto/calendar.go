package dto

type CalendarNight struct {
	Date       string `json:"date"`
	Available  bool   `json:"available"`
	Overridden bool   `json:"overridden"`
	PriceMinor *int64 `json:"price_minor,omitempty"`
}

type Calendar struct {
	PropertyID string          `json:"property_id"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	Currency   string          `json:"currency"`
	Nights     []CalendarNight `json:"nights"`
}
