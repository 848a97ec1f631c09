package models

import "time"

// Bus is a vehicle of the school fleet.
type Bus struct {
	ID            int64     `db:"id" json:"id"`
	BusNumber     string    `db:"bus_number" json:"busNumber"`
	LicenseNumber string    `db:"license_number" json:"licenseNumber"`
	Capacity      int       `db:"capacity" json:"capacity"`
	DriverID      *int64    `db:"driver_id" json:"driverId"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// NewBus is the insertable shape of a bus.
type NewBus struct {
	BusNumber     string     `json:"busNumber" validate:"required,max=20"`
	LicenseNumber string     `json:"licenseNumber" validate:"required,max=20"`
	Capacity      int        `json:"capacity" validate:"required,gt=0"`
	DriverID      OptionalID `json:"driverId"`
}

// BusPatch carries a partial bus update.
type BusPatch struct {
	BusNumber     *string    `json:"busNumber" validate:"omitempty,max=20"`
	LicenseNumber *string    `json:"licenseNumber" validate:"omitempty,max=20"`
	Capacity      *int       `json:"capacity" validate:"omitempty,gt=0"`
	DriverID      OptionalID `json:"driverId"`
}

// IsEmpty reports whether the patch changes nothing.
func (p BusPatch) IsEmpty() bool {
	return p.BusNumber == nil && p.LicenseNumber == nil && p.Capacity == nil && !p.DriverID.Set
}

// Location is a recorded GPS fix of a bus. Coordinates are kept as text.
type Location struct {
	ID        int64     `db:"id" json:"id"`
	BusID     *int64    `db:"bus_id" json:"busId"`
	Latitude  string    `db:"latitude" json:"latitude"`
	Longitude string    `db:"longitude" json:"longitude"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// NewLocation is the insertable shape of a location fix.
type NewLocation struct {
	BusID     int64  `json:"busId" validate:"required,gt=0"`
	Latitude  string `json:"latitude" validate:"required,latitude"`
	Longitude string `json:"longitude" validate:"required,longitude"`
}
