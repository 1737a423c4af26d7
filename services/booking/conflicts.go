package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ridelink/config"
	"ridelink/models"
	"ridelink/utils"

	"go.uber.org/zap"
)

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2)
// intersect. A ride ending exactly when another begins does not conflict.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// DetectConflicts scans the calendar and existing bookings for commitments of
// either party that overlap the requested window. The fetch range is padded on
// both sides so nothing straddling the window is missed, but overlap itself is
// tested against [start, end): a ride ending exactly when the new one begins
// is not a conflict. Rider conflicts take priority over driver conflicts when
// setting the rejection reason: the rider's own commitment blocks the booking
// regardless of driver availability. A calendar outage degrades to a
// bookings-only check.
func (svc *DefaultBookingService) DetectConflicts(ctx context.Context, driverPhone, riderPhone string, start, end time.Time) (*models.ConflictReport, error) {
	logger := utils.GetLogger()

	pad := time.Duration(config.AppConfig.ConflictSearchPadHours) * time.Hour
	searchStart := start.Add(-pad)
	searchEnd := end.Add(pad)

	var conflicts []models.ConflictRecord

	calendarConflicts, err := svc.calendarConflicts(ctx, driverPhone, riderPhone, searchStart, searchEnd, start, end)
	if err != nil {
		logger.Warn("Calendar unreachable, continuing with booking records only",
			zap.String("driver", driverPhone), zap.Error(err))
	} else {
		conflicts = append(conflicts, calendarConflicts...)
	}

	bookingConflicts, err := svc.bookingConflicts(driverPhone, riderPhone, searchStart, searchEnd, start, end)
	if err != nil {
		return nil, fmt.Errorf("booking conflict scan failed: %w", err)
	}
	conflicts = append(conflicts, bookingConflicts...)

	report := &models.ConflictReport{
		HasConflict: len(conflicts) > 0,
		Conflicts:   conflicts,
		Start:       start,
		End:         end,
	}
	if report.HasConflict {
		report.RejectionReason = classifyConflicts(conflicts)
		report.Summary = summarizeConflicts(conflicts)
	}
	return report, nil
}

// calendarConflicts matches events whose text references either party in any
// tolerated phone variant. Events are fetched over the padded range and
// filtered against the requested window.
func (svc *DefaultBookingService) calendarConflicts(ctx context.Context, driverPhone, riderPhone string, searchStart, searchEnd, start, end time.Time) ([]models.ConflictRecord, error) {
	if svc.CalendarSvc == nil || !svc.CalendarSvc.Enabled() {
		return nil, fmt.Errorf("calendar integration not configured")
	}

	events, err := svc.CalendarSvc.ListEvents(ctx, searchStart, searchEnd)
	if err != nil {
		return nil, err
	}

	prefix := config.AppConfig.CountryCallingPrefix
	var conflicts []models.ConflictRecord
	for _, ev := range events {
		if !Overlaps(ev.Start, ev.End, start, end) {
			continue
		}
		text := ev.Summary + " " + ev.Description
		driverMatch := utils.TextMentionsPhone(text, driverPhone, prefix)
		riderMatch := utils.TextMentionsPhone(text, riderPhone, prefix)
		if !driverMatch && !riderMatch {
			continue
		}

		rec := models.ConflictRecord{
			Source:      models.SourceCalendar,
			Title:       eventTitle(ev),
			Start:       ev.Start,
			End:         ev.End,
			ReferenceID: ev.ID,
		}
		switch {
		case driverMatch && riderMatch:
			rec.Party = models.PartyBoth
			rec.Phone = riderPhone
		case riderMatch:
			rec.Party = models.PartyRider
			rec.Phone = riderPhone
		default:
			rec.Party = models.PartyDriver
			rec.Phone = driverPhone
		}
		conflicts = append(conflicts, rec)
	}
	return conflicts, nil
}

// bookingConflicts scans occupied ride records for both parties. Records are
// fetched over the padded window and filtered against the requested one.
func (svc *DefaultBookingService) bookingConflicts(driverPhone, riderPhone string, searchStart, searchEnd, start, end time.Time) ([]models.ConflictRecord, error) {
	driverRides, err := svc.RideRepo.FindOverlapping(driverPhone, true, searchStart, searchEnd)
	if err != nil {
		return nil, err
	}
	riderRides, err := svc.RideRepo.FindOverlapping(riderPhone, false, searchStart, searchEnd)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(driverRides))
	var conflicts []models.ConflictRecord
	for _, ride := range driverRides {
		rideStart, rideEnd := ride.Window()
		if !Overlaps(rideStart, rideEnd, start, end) {
			continue
		}
		party := models.PartyDriver
		phone := driverPhone
		if ride.RiderPhone == riderPhone {
			party = models.PartyBoth
			phone = riderPhone
		}
		conflicts = append(conflicts, rideConflictRecord(ride, party, phone))
		seen[ride.RideID] = true
	}
	for _, ride := range riderRides {
		if seen[ride.RideID] {
			continue
		}
		rideStart, rideEnd := ride.Window()
		if !Overlaps(rideStart, rideEnd, start, end) {
			continue
		}
		conflicts = append(conflicts, rideConflictRecord(ride, models.PartyRider, riderPhone))
	}
	return conflicts, nil
}

func rideConflictRecord(ride models.Ride, party models.ConflictParty, phone string) models.ConflictRecord {
	start, end := ride.Window()
	return models.ConflictRecord{
		Party:       party,
		Source:      models.SourceBooking,
		Phone:       phone,
		Title:       fmt.Sprintf("Ride %s to %s", ride.From, ride.To),
		Start:       start,
		End:         end,
		ReferenceID: ride.RideID,
	}
}

// classifyConflicts derives the rejection reason. Any rider-side conflict
// wins the tie.
func classifyConflicts(conflicts []models.ConflictRecord) models.RejectionReason {
	for _, c := range conflicts {
		if c.Party == models.PartyRider || c.Party == models.PartyBoth {
			return models.ReasonRiderConflict
		}
	}
	return models.ReasonDriverConflict
}

func summarizeConflicts(conflicts []models.ConflictRecord) string {
	parts := make([]string, 0, len(conflicts))
	loc := config.Location()
	for _, c := range conflicts {
		parts = append(parts, fmt.Sprintf("%s (%s %s-%s)",
			c.Title,
			c.Party,
			c.Start.In(loc).Format("15:04"),
			c.End.In(loc).Format("15:04"),
		))
	}
	return strings.Join(parts, "; ")
}

func eventTitle(ev models.CalendarEvent) string {
	if ev.Summary != "" {
		return ev.Summary
	}
	return "Calendar event"
}
