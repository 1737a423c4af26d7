package booking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ridelink/models"
	"ridelink/services/maps"
)

func testDriver(phone, location string, locatedAgo time.Duration) *models.Driver {
	at := time.Now().Add(-locatedAgo)
	return &models.Driver{
		Phone:  phone,
		Name:   "Test Driver",
		Rating: 4.5,
		CurrentLocation: models.DriverLocation{
			Address:     location,
			LastUpdated: &at,
		},
	}
}

func TestValidatePickupDistanceRejectsFarDriver(t *testing.T) {
	driver := testDriver("+923001112233", "Model Town", 10*time.Minute)
	m := &fakeMaps{legs: map[string]maps.Leg{
		"Model Town|Airport": {Km: 25, Minutes: 40},
	}}
	svc := newTestService(&fakeRideRepo{}, newFakeDriverRepo(driver), &fakeCalendar{disabled: true}, m)

	res, err := svc.ValidatePickupDistance(context.Background(), "+923001112233", "Airport", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("ValidatePickupDistance: %v", err)
	}
	if res.Valid {
		t.Fatal("25 km against a 20 km cap must reject")
	}
	if res.DistanceKm == nil || *res.DistanceKm != 25 {
		t.Errorf("distance = %v, want 25", res.DistanceKm)
	}
}

func TestValidatePickupDistanceStaleLocationPasses(t *testing.T) {
	// Location data older than the staleness threshold is unreliable; the
	// check passes with a warning instead of blocking.
	driver := testDriver("+923001112233", "Model Town", 3*time.Hour)
	m := &fakeMaps{legs: map[string]maps.Leg{
		"Model Town|Airport": {Km: 25, Minutes: 40},
	}}
	svc := newTestService(&fakeRideRepo{}, newFakeDriverRepo(driver), &fakeCalendar{disabled: true}, m)

	res, err := svc.ValidatePickupDistance(context.Background(), "+923001112233", "Airport", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("ValidatePickupDistance: %v", err)
	}
	if !res.Valid {
		t.Fatal("stale location must warn and pass, not reject")
	}
	if res.Warning == "" {
		t.Error("expected a staleness warning")
	}
}

func TestValidatePickupDistanceNoLocationPasses(t *testing.T) {
	driver := &models.Driver{Phone: "+923001112233"}
	svc := newTestService(&fakeRideRepo{}, newFakeDriverRepo(driver), &fakeCalendar{disabled: true}, &fakeMaps{})

	res, err := svc.ValidatePickupDistance(context.Background(), "+923001112233", "Airport", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("ValidatePickupDistance: %v", err)
	}
	if !res.Valid {
		t.Error("no prior location must pass trivially")
	}
}

func TestValidatePickupDistanceMapsOutagePasses(t *testing.T) {
	driver := testDriver("+923001112233", "Model Town", 10*time.Minute)
	m := &fakeMaps{err: fmt.Errorf("distance service down")}
	svc := newTestService(&fakeRideRepo{}, newFakeDriverRepo(driver), &fakeCalendar{disabled: true}, m)

	res, err := svc.ValidatePickupDistance(context.Background(), "+923001112233", "Airport", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("ValidatePickupDistance: %v", err)
	}
	if !res.Valid || res.Warning == "" {
		t.Errorf("distance outage must warn and pass, got %+v", res)
	}
}

func TestValidateFutureBookingGapRule(t *testing.T) {
	driver := testDriver("+923001112233", "Model Town", 10*time.Minute)

	// Noon two days out keeps the prior ride on the same calendar day.
	y, m, d := time.Now().UTC().AddDate(0, 0, 2).Date()
	requested := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)

	existing := models.Ride{
		RideID:            "r1",
		DriverPhone:       "+923001112233",
		RiderPhone:        "+923007770000",
		From:              "Johar Town",
		To:                "Gulberg",
		RequestedTime:     requested.Add(-time.Hour),
		EstimatedDuration: 30,
		Status:            models.StatusAutoAccepted,
	}

	cases := []struct {
		name      string
		travelMin float64
		wantValid bool
	}{
		// At or under the same-area threshold the driver can serve both.
		{"same area", 20, true},
		// Needs to travel and has no buffer.
		{"needs travel inside gap", 45, false},
		// Beyond the minimum gap there is enough buffer.
		{"beyond gap", 150, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &fakeMaps{legs: map[string]maps.Leg{
				"Gulberg|Airport":    {Km: tc.travelMin / 2, Minutes: tc.travelMin},
				"Johar Town|Airport": {Km: tc.travelMin / 2, Minutes: tc.travelMin},
			}}
			rides := &fakeRideRepo{rides: []models.Ride{existing}}
			svc := newTestService(rides, newFakeDriverRepo(driver), &fakeCalendar{disabled: true}, m)

			res, err := svc.ValidatePickupDistance(context.Background(), "+923001112233", "Airport", requested)
			if err != nil {
				t.Fatalf("ValidatePickupDistance: %v", err)
			}
			if res.Valid != tc.wantValid {
				t.Errorf("valid = %v, want %v (travel %v min)", res.Valid, tc.wantValid, tc.travelMin)
			}
			if !tc.wantValid && res.ConflictingRideID != "r1" {
				t.Errorf("conflictingRideId = %q, want r1", res.ConflictingRideID)
			}
		})
	}
}

func TestValidateFutureBookingNoSameDayRidesPasses(t *testing.T) {
	driver := testDriver("+923001112233", "Model Town", 10*time.Minute)
	svc := newTestService(&fakeRideRepo{}, newFakeDriverRepo(driver), &fakeCalendar{disabled: true}, &fakeMaps{})

	res, err := svc.ValidatePickupDistance(context.Background(), "+923001112233", "Airport", time.Now().Add(48*time.Hour))
	if err != nil {
		t.Fatalf("ValidatePickupDistance: %v", err)
	}
	if !res.Valid {
		t.Error("an empty same-day schedule must pass")
	}
}
