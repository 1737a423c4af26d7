package models

// ReminderPayload is the queued task payload for a pickup reminder.
type ReminderPayload struct {
	RideID      string `json:"rideId"`
	RiderPhone  string `json:"riderPhone"`
	DriverPhone string `json:"driverPhone"`
	From        string `json:"from"`
	To          string `json:"to"`
	FireAt      string `json:"fireAt"`
}
