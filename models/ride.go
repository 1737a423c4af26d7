package models

import "time"

// RideStatus enumerates the lifecycle states of a ride record.
type RideStatus string

const (
	StatusAutoAccepted RideStatus = "auto_accepted"
	StatusAutoRejected RideStatus = "auto_rejected"
	StatusCompleted    RideStatus = "completed"
	StatusCancelled    RideStatus = "cancelled"
)

// IsValid reports whether the status is one of the closed set.
func (s RideStatus) IsValid() bool {
	switch s {
	case StatusAutoAccepted, StatusAutoRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// RejectionReason enumerates why an auto-rejected ride was turned down.
type RejectionReason string

const (
	ReasonDriverConflict RejectionReason = "driver_conflict"
	ReasonRiderConflict  RejectionReason = "rider_conflict"
	ReasonDriverLocation RejectionReason = "driver_location"
	ReasonSystemError    RejectionReason = "system_error"
)

// IsValid reports whether the reason is one of the closed set.
func (r RejectionReason) IsValid() bool {
	switch r {
	case ReasonDriverConflict, ReasonRiderConflict, ReasonDriverLocation, ReasonSystemError:
		return true
	}
	return false
}

// Ride is the durable audit record of one booking attempt.
// Immutable after creation except for CalendarEventID, which is set once the
// external calendar write succeeds.
type Ride struct {
	RideID             string              `bson:"rideId" json:"rideId"`
	DriverPhone        string              `bson:"driverPhone" json:"driverPhone"`
	RiderPhone         string              `bson:"riderPhone" json:"riderPhone"`
	From               string              `bson:"from" json:"from"`
	To                 string              `bson:"to" json:"to"`
	RequestedTime      time.Time           `bson:"requestedTime" json:"requestedTime"`
	EstimatedDuration  int                 `bson:"estimatedDuration" json:"estimatedDuration"` // minutes, [5,480]
	Status             RideStatus          `bson:"status" json:"status"`
	RejectionReason    RejectionReason     `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	ConflictDetails    []ConflictRecord    `bson:"conflictDetails,omitempty" json:"conflictDetails,omitempty"`
	ConflictResolution *ConflictResolution `bson:"conflictResolution,omitempty" json:"conflictResolution,omitempty"`
	CalendarEventID    string              `bson:"calendarEventId,omitempty" json:"calendarEventId,omitempty"`
	DistanceKm         *float64            `bson:"distanceKm,omitempty" json:"distanceKm,omitempty"`
	ProcessedAt        time.Time           `bson:"processedAt" json:"processedAt"`
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
}

// Window returns the half-open occupancy window of the ride.
func (r Ride) Window() (time.Time, time.Time) {
	return r.RequestedTime, r.RequestedTime.Add(time.Duration(r.EstimatedDuration) * time.Minute)
}

// ConflictResolution is the structured suggestion attached to a rejection.
type ConflictResolution struct {
	Type               RejectionReason     `bson:"type" json:"type"`
	Message            string              `bson:"message" json:"message"`
	Suggestion         string              `bson:"suggestion,omitempty" json:"suggestion,omitempty"`
	AlternativeDrivers []AlternativeDriver `bson:"alternativeDrivers,omitempty" json:"alternativeDrivers,omitempty"`
	SuggestedTimes     []SuggestedTime     `bson:"suggestedTimes,omitempty" json:"suggestedTimes,omitempty"`
}

// AlternativeDriver is a ranked candidate offered after a driver conflict.
type AlternativeDriver struct {
	DriverPhone string  `bson:"driverPhone" json:"driverPhone"`
	Name        string  `bson:"name,omitempty" json:"name,omitempty"`
	Rating      float64 `bson:"rating" json:"rating"`
	TotalRides  int     `bson:"totalRides" json:"totalRides"`
	DistanceKm  float64 `bson:"distanceKm" json:"distanceKm"`
}

// SuggestedTime is an alternative pickup time offered after a rider conflict.
type SuggestedTime struct {
	Time          time.Time `bson:"time" json:"time"`
	Display       string    `bson:"display" json:"display"`
	OffsetMinutes int       `bson:"offsetMinutes" json:"offsetMinutes"`
}

// BookingOutcome is the structured result the orchestrator returns.
type BookingOutcome struct {
	Success            bool                `json:"success"`
	RideID             string              `json:"rideId"`
	Status             RideStatus          `json:"status"`
	Message            string              `json:"message"`
	RequestedTime      time.Time           `json:"requestedTime"`
	EstimatedDuration  int                 `json:"estimatedDuration"`
	RejectionReason    RejectionReason     `json:"rejectionReason,omitempty"`
	ConflictSummary    string              `json:"conflictSummary,omitempty"`
	Conflicts          []ConflictRecord    `json:"conflicts,omitempty"`
	ConflictResolution *ConflictResolution `json:"conflictResolution,omitempty"`
	CalendarEventID    string              `json:"calendarEventId,omitempty"`
	LocationWarning    string              `json:"locationWarning,omitempty"`
}
