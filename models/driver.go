package models

import "time"

// Driver is a roster entry for one service provider.
type Driver struct {
	Phone      string  `bson:"phone" json:"phone"`
	Name       string  `bson:"name" json:"name"`
	Rating     float64 `bson:"rating" json:"rating"`         // [0,5]
	TotalRides int     `bson:"totalRides" json:"totalRides"` // >= 0

	Vehicle VehicleDetails `bson:"vehicle,omitempty" json:"vehicle,omitempty"`

	WorkingHours WorkingHours `bson:"workingHours" json:"workingHours"`
	WorkingDays  []string     `bson:"workingDays,omitempty" json:"workingDays,omitempty"`

	CalendarIntegration CalendarIntegration `bson:"calendarIntegration" json:"calendarIntegration"`
	CurrentLocation     DriverLocation      `bson:"currentLocation" json:"currentLocation"`
	ServiceArea         ServiceArea         `bson:"serviceArea" json:"serviceArea"`

	FCMToken  string    `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// VehicleDetails captures the car a driver operates.
type VehicleDetails struct {
	Make        string `bson:"make,omitempty" json:"make,omitempty"`
	Model       string `bson:"model,omitempty" json:"model,omitempty"`
	Year        int    `bson:"year,omitempty" json:"year,omitempty"`
	PlateNumber string `bson:"plateNumber,omitempty" json:"plateNumber,omitempty"`
	Color       string `bson:"color,omitempty" json:"color,omitempty"`
}

// WorkingHours is a daily availability window, "HH:MM" local time.
type WorkingHours struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// CalendarIntegration marks whether authoritative availability checks go
// through the external calendar.
type CalendarIntegration struct {
	Enabled    bool      `bson:"enabled" json:"enabled"`
	CalendarID string    `bson:"calendarId,omitempty" json:"calendarId,omitempty"`
	LastSync   time.Time `bson:"lastSync,omitempty" json:"lastSync,omitempty"`
}

// DriverLocation is the last known position of a driver, with the staleness
// timestamp proximity checks rely on.
type DriverLocation struct {
	Address     string     `bson:"address,omitempty" json:"address,omitempty"`
	Coordinates *GeoPoint  `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	LastUpdated *time.Time `bson:"lastUpdated,omitempty" json:"lastUpdated,omitempty"`
}

// ServiceArea caps how far a driver will travel to a pickup.
type ServiceArea struct {
	MaxDistanceKm  float64 `bson:"maxDistanceKm,omitempty" json:"maxDistanceKm,omitempty"`
	MaxDurationMin float64 `bson:"maxDurationMin,omitempty" json:"maxDurationMin,omitempty"`
}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// RankedDriver is a scored auto-assignment candidate.
type RankedDriver struct {
	DriverPhone     string         `json:"driverPhone"`
	Name            string         `json:"name,omitempty"`
	Rating          float64        `json:"rating"`
	TotalRides      int            `json:"totalRides"`
	Vehicle         VehicleDetails `json:"vehicle,omitempty"`
	DistanceKm      float64        `json:"distanceKm"`
	DurationMin     float64        `json:"durationMin"`
	CurrentLocation string         `json:"currentLocation"`
	Score           float64        `json:"score"`
}
