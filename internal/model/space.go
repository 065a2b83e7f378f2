package model

// Space is a physical room. Only bookable spaces take part in availability.
type Space struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Capacity  int     `json:"capacity"`
	AreaSqm   float64 `json:"areaSqm"`
	Bookable  bool    `json:"bookable"`
	Equipment string  `json:"equipment"`
	Uses      string  `json:"uses"`
}
