package booking

import (
	"context"
	"fmt"
	"time"

	"ridelink/config"
	"ridelink/models"
	"ridelink/services/maps"
	"ridelink/services/preference"
)

// configureEngine pins the thresholds the engine reads from configuration.
func configureEngine() {
	config.AppConfig.Timezone = "UTC"
	config.AppConfig.CountryCallingPrefix = "+92"
	config.AppConfig.MaxDriverDistanceKm = 20
	config.AppConfig.MaxDriverDurationMin = 30
	config.AppConfig.ConflictSearchPadHours = 2
	config.AppConfig.FutureBookingLeadHours = 4
	config.AppConfig.LocationStalenessMin = 120
	config.AppConfig.SameAreaThresholdMin = 30
	config.AppConfig.MinimumGapHours = 2
}

type fakeRideRepo struct {
	rides     []models.Ride
	createErr error
	findErr   error
}

func (f *fakeRideRepo) Create(ride *models.Ride) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.rides = append(f.rides, *ride)
	return nil
}

func (f *fakeRideRepo) GetByRideID(rideID string) (*models.Ride, error) {
	for i := range f.rides {
		if f.rides[i].RideID == rideID {
			return &f.rides[i], nil
		}
	}
	return nil, fmt.Errorf("ride %s not found", rideID)
}

func (f *fakeRideRepo) SetCalendarEventID(rideID, eventID string) error {
	for i := range f.rides {
		if f.rides[i].RideID == rideID {
			f.rides[i].CalendarEventID = eventID
			return nil
		}
	}
	return fmt.Errorf("ride %s not found", rideID)
}

func (f *fakeRideRepo) occupied(r models.Ride) bool {
	return r.Status == models.StatusAutoAccepted || r.Status == models.StatusCompleted
}

func (f *fakeRideRepo) FindOverlapping(phone string, asDriver bool, start, end time.Time) ([]models.Ride, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []models.Ride
	for _, r := range f.rides {
		party := r.RiderPhone
		if asDriver {
			party = r.DriverPhone
		}
		if party != phone || !f.occupied(r) {
			continue
		}
		s, e := r.Window()
		if Overlaps(s, e, start, end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRideRepo) FindSameDay(driverPhone string, day time.Time) ([]models.Ride, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []models.Ride
	for _, r := range f.rides {
		if r.DriverPhone != driverPhone || !f.occupied(r) {
			continue
		}
		rt := r.RequestedTime.In(day.Location())
		if rt.Year() == day.Year() && rt.YearDay() == day.YearDay() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRideRepo) FindNearTime(driverPhone string, t time.Time, before, after time.Duration) ([]models.Ride, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []models.Ride
	for _, r := range f.rides {
		if r.DriverPhone != driverPhone || !f.occupied(r) {
			continue
		}
		if !r.RequestedTime.Before(t.Add(-before)) && !r.RequestedTime.After(t.Add(after)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRideRepo) LatestAcceptedByDriver(driverPhone string) (*models.Ride, error) {
	var latest *models.Ride
	for i := range f.rides {
		r := &f.rides[i]
		if r.DriverPhone != driverPhone || r.Status != models.StatusAutoAccepted {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	return latest, nil
}

func (f *fakeRideRepo) CountByStatus() (map[models.RideStatus]int64, error) {
	counts := make(map[models.RideStatus]int64)
	for _, r := range f.rides {
		counts[r.Status]++
	}
	return counts, nil
}

type fakeDriverRepo struct {
	drivers map[string]*models.Driver
}

func newFakeDriverRepo(drivers ...*models.Driver) *fakeDriverRepo {
	repo := &fakeDriverRepo{drivers: make(map[string]*models.Driver)}
	for _, d := range drivers {
		repo.drivers[d.Phone] = d
	}
	return repo
}

func (f *fakeDriverRepo) GetByPhone(phone string) (*models.Driver, error) {
	if d, ok := f.drivers[phone]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("driver %s not found", phone)
}

func (f *fakeDriverRepo) ListByRatingAndRides() ([]models.Driver, error) {
	var out []models.Driver
	for _, d := range f.drivers {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDriverRepo) UpdateLocation(phone, address string, at time.Time) error {
	d, ok := f.drivers[phone]
	if !ok {
		return fmt.Errorf("driver %s not found", phone)
	}
	d.CurrentLocation.Address = address
	d.CurrentLocation.LastUpdated = &at
	return nil
}

func (f *fakeDriverRepo) IncrementRides(phone string) error {
	if d, ok := f.drivers[phone]; ok {
		d.TotalRides++
		return nil
	}
	return fmt.Errorf("driver %s not found", phone)
}

func (f *fakeDriverRepo) Create(driver *models.Driver) error {
	f.drivers[driver.Phone] = driver
	return nil
}

type fakeRiderRepo struct {
	outcomes []bool
}

func (f *fakeRiderRepo) GetByPhone(phone string) (*models.Rider, error) {
	return &models.Rider{Phone: phone}, nil
}

func (f *fakeRiderRepo) RecordBookingOutcome(phone string, accepted bool, rideTime time.Time) error {
	f.outcomes = append(f.outcomes, accepted)
	return nil
}

type fakeCalendar struct {
	events    []models.CalendarEvent
	listErr   error
	created   []models.Ride
	createErr error
	disabled  bool
}

func (f *fakeCalendar) Enabled() bool { return !f.disabled }

func (f *fakeCalendar) ListEvents(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.CalendarEvent
	for _, ev := range f.events {
		if Overlaps(ev.Start, ev.End, from, to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeCalendar) CreateRideEvent(ctx context.Context, ride *models.Ride) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, *ride)
	return "evt-" + ride.RideID, nil
}

// fakeMaps answers distance queries from a canned route table keyed
// "origin|destination".
type fakeMaps struct {
	legs map[string]maps.Leg
	err  error
}

func (f *fakeMaps) DistanceBetween(ctx context.Context, origin, destination string) (*maps.Leg, error) {
	if f.err != nil {
		return nil, f.err
	}
	if leg, ok := f.legs[origin+"|"+destination]; ok {
		return &leg, nil
	}
	return nil, nil
}

func (f *fakeMaps) ResolveAddress(ctx context.Context, address string) (string, error) {
	return address, nil
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) SendWhatsApp(ctx context.Context, to, body string) error {
	f.sent = append(f.sent, to+": "+body)
	return nil
}

func (f *fakeNotifier) SendDriverPush(ctx context.Context, driver *models.Driver, title, body string, data map[string]string) error {
	return nil
}

func (f *fakeNotifier) NotifyBookingOutcome(ctx context.Context, ride *models.Ride, driver *models.Driver) {
	f.sent = append(f.sent, ride.RiderPhone+": "+string(ride.Status))
}

type fakePrefs struct {
	recorded []string
}

func (f *fakePrefs) RecordAffinity(ctx context.Context, riderPhone, driverPhone, from, to string) error {
	f.recorded = append(f.recorded, riderPhone+"->"+driverPhone)
	return nil
}

func (f *fakePrefs) QueryPreferredDrivers(ctx context.Context, riderPhone, destination string, minRides int) ([]preference.DriverAffinity, error) {
	return nil, nil
}

func newTestService(rides *fakeRideRepo, drivers *fakeDriverRepo, cal *fakeCalendar, m *fakeMaps) *DefaultBookingService {
	configureEngine()
	return &DefaultBookingService{
		RideRepo:    rides,
		DriverRepo:  drivers,
		RiderRepo:   &fakeRiderRepo{},
		CalendarSvc: cal,
		MapsSvc:     m,
		NotifySvc:   &fakeNotifier{},
	}
}
