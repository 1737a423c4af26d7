package preference

import (
	"context"
	"time"
)

// DriverAffinity is one ranked entry of a rider's learned driver preference.
type DriverAffinity struct {
	DriverPhone string  `json:"driverPhone"`
	Similarity  float64 `json:"similarity"`
	Rides       int     `json:"rides"`
}

// PreferenceService learns rider-driver pairing strength from booked routes
// and answers "who usually drives this rider toward that area". Everything
// here is best-effort: failures only log, the booking flow never depends on
// it.
type PreferenceService interface {
	RecordAffinity(ctx context.Context, riderPhone, driverPhone, from, to string) error
	QueryPreferredDrivers(ctx context.Context, riderPhone, destination string, minRides int) ([]DriverAffinity, error)
}

// routeAffinity is the stored vector record for one rider-driver-route triple.
type routeAffinity struct {
	RiderPhone  string    `bson:"riderPhone"`
	DriverPhone string    `bson:"driverPhone"`
	From        string    `bson:"from"`
	To          string    `bson:"to"`
	RouteText   string    `bson:"routeText"`
	Embedding   []float32 `bson:"embedding"`
	Count       int       `bson:"count"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}
