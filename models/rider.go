package models

import "time"

// Rider tracks aggregate stats for one rider phone number.
type Rider struct {
	Phone      string     `bson:"phone" json:"phone"`
	TotalRides int        `bson:"totalRides" json:"totalRides"`
	LastRideAt *time.Time `bson:"lastRideAt,omitempty" json:"lastRideAt,omitempty"`
	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time  `bson:"updatedAt" json:"updatedAt"`
}
