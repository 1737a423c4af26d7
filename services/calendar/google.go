package calendar

import (
	"context"
	"fmt"
	"time"

	"ridelink/config"
	"ridelink/models"
	"ridelink/utils"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleCalendarService talks to the Google Calendar API. A nil inner service
// means the integration is not configured; all calls then report unavailable.
type GoogleCalendarService struct {
	srv        *gcal.Service
	calendarID string
}

// NewGoogleCalendarService builds the calendar client from the configured
// service account credentials. Returns a disabled service when credentials
// are absent, so the engine keeps working without calendar checks.
func NewGoogleCalendarService(ctx context.Context) *GoogleCalendarService {
	logger := utils.GetLogger()
	credFile := config.AppConfig.GoogleCredentialsFile
	if credFile == "" {
		logger.Warn("Google Calendar credentials not configured, calendar checks disabled")
		return &GoogleCalendarService{}
	}

	srv, err := gcal.NewService(ctx, option.WithCredentialsFile(credFile))
	if err != nil {
		logger.Error("Failed to initialize Google Calendar client", zap.Error(err))
		return &GoogleCalendarService{}
	}

	calID := config.AppConfig.GoogleCalendarID
	if calID == "" {
		calID = "primary"
	}
	return &GoogleCalendarService{srv: srv, calendarID: calID}
}

func (s *GoogleCalendarService) Enabled() bool {
	return s != nil && s.srv != nil
}

func (s *GoogleCalendarService) ListEvents(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("calendar integration not configured")
	}

	res, err := s.srv.Events.List(s.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("calendar list failed: %w", err)
	}

	events := make([]models.CalendarEvent, 0, len(res.Items))
	for _, item := range res.Items {
		start, end, ok := eventWindow(item)
		if !ok {
			continue
		}
		events = append(events, models.CalendarEvent{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Start:       start,
			End:         end,
		})
	}
	return events, nil
}

func (s *GoogleCalendarService) CreateRideEvent(ctx context.Context, ride *models.Ride) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("calendar integration not configured")
	}

	start, end := ride.Window()
	tz := config.AppConfig.Timezone
	ev := &gcal.Event{
		Summary:     fmt.Sprintf("Ride: %s to %s", ride.From, ride.To),
		Description: fmt.Sprintf("Driver: %s\nRider: %s\nRide ID: %s", ride.DriverPhone, ride.RiderPhone, ride.RideID),
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: tz},
		End:         &gcal.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: tz},
	}

	created, err := s.srv.Events.Insert(s.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar insert failed: %w", err)
	}
	return created.Id, nil
}

// eventWindow resolves the concrete time window of an event. All-day events
// carry only a date; those are expanded to the full local day.
func eventWindow(item *gcal.Event) (time.Time, time.Time, bool) {
	if item.Start == nil || item.End == nil {
		return time.Time{}, time.Time{}, false
	}
	if item.Start.DateTime != "" && item.End.DateTime != "" {
		start, err1 := time.Parse(time.RFC3339, item.Start.DateTime)
		end, err2 := time.Parse(time.RFC3339, item.End.DateTime)
		if err1 != nil || err2 != nil {
			return time.Time{}, time.Time{}, false
		}
		return start, end, true
	}
	if item.Start.Date != "" && item.End.Date != "" {
		loc := config.Location()
		start, err1 := time.ParseInLocation("2006-01-02", item.Start.Date, loc)
		end, err2 := time.ParseInLocation("2006-01-02", item.End.Date, loc)
		if err1 != nil || err2 != nil {
			return time.Time{}, time.Time{}, false
		}
		return start, end, true
	}
	return time.Time{}, time.Time{}, false
}
