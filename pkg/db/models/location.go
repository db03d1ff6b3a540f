package models

// Location is an embedded value object; it has no identity of its own.
type Location struct {
	Latitude  float64 `gorm:"column:latitude;not null" json:"latitude"`
	Longitude float64 `gorm:"column:longitude;not null" json:"longitude"`
}
