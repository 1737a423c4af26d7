package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ridelink/models"
	"ridelink/services/maps"
)

type fakeReminders struct {
	scheduled []string
	err       error
}

func (f *fakeReminders) ScheduleRideReminder(ride *models.Ride) error {
	if f.err != nil {
		return f.err
	}
	f.scheduled = append(f.scheduled, ride.RideID)
	return nil
}

type orchestratorFixture struct {
	svc       *DefaultBookingService
	rides     *fakeRideRepo
	drivers   *fakeDriverRepo
	riders    *fakeRiderRepo
	cal       *fakeCalendar
	notifier  *fakeNotifier
	prefs     *fakePrefs
	reminders *fakeReminders
}

func newOrchestratorFixture(rides *fakeRideRepo, drivers *fakeDriverRepo, cal *fakeCalendar, m *fakeMaps) *orchestratorFixture {
	configureEngine()
	fx := &orchestratorFixture{
		rides:     rides,
		drivers:   drivers,
		riders:    &fakeRiderRepo{},
		cal:       cal,
		notifier:  &fakeNotifier{},
		prefs:     &fakePrefs{},
		reminders: &fakeReminders{},
	}
	fx.svc = &DefaultBookingService{
		RideRepo:      rides,
		DriverRepo:    drivers,
		RiderRepo:     fx.riders,
		CalendarSvc:   cal,
		MapsSvc:       m,
		NotifySvc:     fx.notifier,
		PreferenceSvc: fx.prefs,
		Reminders:     fx.reminders,
	}
	return fx
}

func acceptableRequest(requested time.Time) BookingRequest {
	return BookingRequest{
		DriverPhone:       "+923001112233",
		RiderPhone:        "+923007770000",
		From:              "Mall Road",
		To:                "Airport",
		RequestedTime:     requested,
		EstimatedDuration: 45,
	}
}

func TestBookAcceptPipeline(t *testing.T) {
	driver := testDriver("+923001112233", "Gulberg", 10*time.Minute)
	m := &fakeMaps{legs: map[string]maps.Leg{
		"Gulberg|Mall Road": {Km: 3, Minutes: 10},
		"Mall Road|Airport": {Km: 12, Minutes: 25},
	}}
	fx := newOrchestratorFixture(&fakeRideRepo{}, newFakeDriverRepo(driver), &fakeCalendar{}, m)

	req := acceptableRequest(time.Now().Add(time.Hour))
	outcome, err := fx.svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if !outcome.Success || outcome.Status != models.StatusAutoAccepted {
		t.Fatalf("outcome = %+v, want accepted", outcome)
	}

	persisted, err := fx.rides.GetByRideID(outcome.RideID)
	if err != nil {
		t.Fatalf("ride not persisted: %v", err)
	}
	if persisted.Status != models.StatusAutoAccepted {
		t.Errorf("persisted status = %s", persisted.Status)
	}
	if persisted.DistanceKm == nil || *persisted.DistanceKm != 12 {
		t.Errorf("ride distance = %v, want 12", persisted.DistanceKm)
	}

	wantEvent := "evt-" + outcome.RideID
	if outcome.CalendarEventID != wantEvent || persisted.CalendarEventID != wantEvent {
		t.Errorf("calendar event id = %q / %q, want %q", outcome.CalendarEventID, persisted.CalendarEventID, wantEvent)
	}
	if len(fx.cal.created) != 1 {
		t.Errorf("calendar events created = %d, want 1", len(fx.cal.created))
	}

	// The driver's position advances to the dropoff at the window end.
	if driver.CurrentLocation.Address != "Airport" {
		t.Errorf("driver location = %q, want Airport", driver.CurrentLocation.Address)
	}
	_, wantEnd := persisted.Window()
	if driver.CurrentLocation.LastUpdated == nil || !driver.CurrentLocation.LastUpdated.Equal(wantEnd) {
		t.Errorf("driver location timestamp = %v, want %v", driver.CurrentLocation.LastUpdated, wantEnd)
	}
	if driver.TotalRides != 1 {
		t.Errorf("driver total rides = %d, want the committed booking counted", driver.TotalRides)
	}

	if len(fx.riders.outcomes) != 1 || !fx.riders.outcomes[0] {
		t.Errorf("rider outcomes = %v, want one accepted", fx.riders.outcomes)
	}
	if len(fx.reminders.scheduled) != 1 {
		t.Errorf("reminders scheduled = %d, want 1", len(fx.reminders.scheduled))
	}
	if len(fx.prefs.recorded) != 1 {
		t.Errorf("affinity records = %d, want 1", len(fx.prefs.recorded))
	}
	if len(fx.notifier.sent) == 0 {
		t.Error("expected outcome notifications")
	}
}

func TestBookRiderConflictSuggestsTimes(t *testing.T) {
	driver := testDriver("+923001112233", "Gulberg", 10*time.Minute)

	y, mo, d := time.Now().UTC().AddDate(0, 0, 2).Date()
	requested := time.Date(y, mo, d, 12, 0, 0, 0, time.UTC)

	rides := &fakeRideRepo{rides: []models.Ride{{
		RideID:            "prior",
		DriverPhone:       "+923009990000",
		RiderPhone:        "+923007770000",
		From:              "DHA",
		To:                "Cantt",
		RequestedTime:     requested.Add(15 * time.Minute),
		EstimatedDuration: 30,
		Status:            models.StatusAutoAccepted,
	}}}
	m := &fakeMaps{legs: map[string]maps.Leg{
		"Gulberg|Mall Road": {Km: 3, Minutes: 10},
		"Mall Road|Airport": {Km: 12, Minutes: 25},
	}}
	fx := newOrchestratorFixture(rides, newFakeDriverRepo(driver), &fakeCalendar{}, m)

	outcome, err := fx.svc.Book(context.Background(), acceptableRequest(requested))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if outcome.Success {
		t.Fatal("overlapping rider booking must be rejected")
	}
	if outcome.RejectionReason != models.ReasonRiderConflict {
		t.Fatalf("rejection reason = %s, want %s", outcome.RejectionReason, models.ReasonRiderConflict)
	}
	if outcome.ConflictResolution == nil || len(outcome.ConflictResolution.SuggestedTimes) == 0 {
		t.Fatal("rider conflict must come with suggested times")
	}
	for _, s := range outcome.ConflictResolution.SuggestedTimes {
		if !s.Time.After(time.Now()) {
			t.Errorf("suggested time %v is not in the future", s.Time)
		}
	}
	if len(fx.cal.created) != 0 {
		t.Error("rejected booking must not create a calendar event")
	}
	if len(fx.riders.outcomes) != 1 || fx.riders.outcomes[0] {
		t.Errorf("rider outcomes = %v, want one rejected", fx.riders.outcomes)
	}
}

func TestBookDriverConflictOffersAlternatives(t *testing.T) {
	busy := testDriver("+923001112233", "Gulberg", 10*time.Minute)
	free := testDriver("+923001110002", "DHA", 10*time.Minute)

	requested := time.Now().Add(time.Hour)
	rides := &fakeRideRepo{rides: []models.Ride{{
		RideID:            "prior",
		DriverPhone:       busy.Phone,
		RiderPhone:        "+923005550000",
		From:              "Cantt",
		To:                "Johar Town",
		RequestedTime:     requested.Add(10 * time.Minute),
		EstimatedDuration: 60,
		Status:            models.StatusAutoAccepted,
	}}}
	m := &fakeMaps{legs: map[string]maps.Leg{
		"Gulberg|Mall Road": {Km: 3, Minutes: 10},
		"DHA|Mall Road":     {Km: 5, Minutes: 15},
		"Mall Road|Airport": {Km: 12, Minutes: 25},
	}}
	fx := newOrchestratorFixture(rides, newFakeDriverRepo(busy, free), &fakeCalendar{}, m)

	outcome, err := fx.svc.Book(context.Background(), acceptableRequest(requested))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if outcome.Success || outcome.RejectionReason != models.ReasonDriverConflict {
		t.Fatalf("outcome = %+v, want driver conflict rejection", outcome)
	}
	if outcome.ConflictResolution == nil {
		t.Fatal("expected a conflict resolution")
	}
	alts := outcome.ConflictResolution.AlternativeDrivers
	if len(alts) != 1 || alts[0].DriverPhone != free.Phone {
		t.Fatalf("alternative drivers = %+v, want just %s", alts, free.Phone)
	}
}

func TestBookRejectsUnreachableDriver(t *testing.T) {
	driver := testDriver("+923001112233", "Sheikhupura", 10*time.Minute)
	m := &fakeMaps{legs: map[string]maps.Leg{
		"Sheikhupura|Mall Road": {Km: 45, Minutes: 70},
	}}
	fx := newOrchestratorFixture(&fakeRideRepo{}, newFakeDriverRepo(driver), &fakeCalendar{}, m)

	outcome, err := fx.svc.Book(context.Background(), acceptableRequest(time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if outcome.Success || outcome.RejectionReason != models.ReasonDriverLocation {
		t.Fatalf("outcome = %+v, want driver_location rejection", outcome)
	}
	if outcome.ConflictResolution != nil {
		t.Errorf("a location rejection is not a scheduling conflict, got resolution %+v", outcome.ConflictResolution)
	}
	if !strings.Contains(outcome.Message, "auto") {
		t.Errorf("message %q should steer the rider toward another driver", outcome.Message)
	}
	persisted, err := fx.rides.GetByRideID(outcome.RideID)
	if err != nil {
		t.Fatal("rejected ride must still be persisted for audit")
	}
	if persisted.ConflictResolution != nil {
		t.Errorf("persisted ride carries resolution %+v, want none", persisted.ConflictResolution)
	}
	if len(fx.cal.created) != 0 {
		t.Error("unreachable driver must not reach the calendar")
	}
}

func TestBookSystemFailureIsAudited(t *testing.T) {
	driver := testDriver("+923001112233", "Gulberg", 10*time.Minute)
	m := &fakeMaps{legs: map[string]maps.Leg{
		"Gulberg|Mall Road": {Km: 3, Minutes: 10},
	}}
	rides := &fakeRideRepo{findErr: fmt.Errorf("store down")}
	fx := newOrchestratorFixture(rides, newFakeDriverRepo(driver), &fakeCalendar{disabled: true}, m)

	outcome, err := fx.svc.Book(context.Background(), acceptableRequest(time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if outcome.Success || outcome.RejectionReason != models.ReasonSystemError {
		t.Fatalf("outcome = %+v, want system_error rejection", outcome)
	}
	if len(rides.rides) != 1 || rides.rides[0].Status != models.StatusAutoRejected {
		t.Errorf("expected the failed attempt persisted, got %+v", rides.rides)
	}
}

func TestValidateRequest(t *testing.T) {
	base := acceptableRequest(time.Now().Add(time.Hour))

	cases := []struct {
		name   string
		mutate func(*BookingRequest)
	}{
		{"bad driver phone", func(r *BookingRequest) { r.DriverPhone = "not-a-phone" }},
		{"bad rider phone", func(r *BookingRequest) { r.RiderPhone = "12" }},
		{"missing pickup", func(r *BookingRequest) { r.From = "" }},
		{"missing destination", func(r *BookingRequest) { r.To = "" }},
		{"past time", func(r *BookingRequest) { r.RequestedTime = time.Now().Add(-time.Minute) }},
		{"duration too short", func(r *BookingRequest) { r.EstimatedDuration = 2 }},
		{"duration too long", func(r *BookingRequest) { r.EstimatedDuration = 600 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			err := validateRequest(&req)
			var be *BookingError
			if !errors.As(err, &be) || be.Code != "validationError" {
				t.Errorf("validateRequest = %v, want validation error", err)
			}
		})
	}

	t.Run("duration defaults", func(t *testing.T) {
		req := base
		req.EstimatedDuration = 0
		if err := validateRequest(&req); err != nil {
			t.Fatalf("validateRequest: %v", err)
		}
		if req.EstimatedDuration != defaultEstimatedDuration {
			t.Errorf("duration = %d, want %d", req.EstimatedDuration, defaultEstimatedDuration)
		}
	})
}

func TestSuggestAlternativeTimesWindow(t *testing.T) {
	y, mo, d := time.Now().UTC().AddDate(0, 0, 2).Date()
	now := time.Date(y, mo, d, 8, 0, 0, 0, time.UTC).Add(-48 * time.Hour)

	t.Run("midday yields four earliest first", func(t *testing.T) {
		configureEngine()
		requested := time.Date(y, mo, d, 12, 0, 0, 0, time.UTC)
		got := SuggestAlternativeTimes(requested, now)
		if len(got) != maxTimeSuggestions {
			t.Fatalf("got %d suggestions, want %d", len(got), maxTimeSuggestions)
		}
		wantOffsets := []int{-180, -120, -60, 60}
		for i, s := range got {
			if s.OffsetMinutes != wantOffsets[i] {
				t.Errorf("offset %d = %d, want %d", i, s.OffsetMinutes, wantOffsets[i])
			}
		}
	})

	t.Run("late evening keeps 22:00, drops later hours", func(t *testing.T) {
		configureEngine()
		requested := time.Date(y, mo, d, 21, 0, 0, 0, time.UTC)
		got := SuggestAlternativeTimes(requested, now)
		sawTen := false
		for _, s := range got {
			h := s.Time.UTC().Hour()
			if h < suggestionEarliestHour || h > suggestionLatestHour {
				t.Errorf("suggestion %v outside the display window", s.Time)
			}
			if h == suggestionLatestHour {
				sawTen = true
			}
		}
		if !sawTen {
			t.Error("a 10 PM pickup is still inside the display window")
		}
	})

	t.Run("past offsets skipped", func(t *testing.T) {
		configureEngine()
		requested := time.Date(y, mo, d, 12, 0, 0, 0, time.UTC)
		nearNow := requested.Add(-30 * time.Minute)
		got := SuggestAlternativeTimes(requested, nearNow)
		wantOffsets := []int{60, 120, 180}
		if len(got) != len(wantOffsets) {
			t.Fatalf("got %d suggestions, want %d", len(got), len(wantOffsets))
		}
		for i, s := range got {
			if s.OffsetMinutes != wantOffsets[i] {
				t.Errorf("offset %d = %d, want %d", i, s.OffsetMinutes, wantOffsets[i])
			}
			if !s.Time.After(nearNow) {
				t.Errorf("suggestion %v is in the past", s.Time)
			}
		}
	})
}
