package conversation

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"ridelink/config"
	"ridelink/models"
	"ridelink/services/booking"
	"ridelink/services/maps"
)

func pinConfig() {
	config.AppConfig.Timezone = "UTC"
	config.AppConfig.CountryCallingPrefix = "+92"
}

type fakeConvRepo struct {
	convs   map[string]*models.Conversation
	saveErr error
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{convs: make(map[string]*models.Conversation)}
}

func (f *fakeConvRepo) GetOrCreate(phone string) (*models.Conversation, error) {
	if c, ok := f.convs[phone]; ok {
		return c, nil
	}
	c := &models.Conversation{
		Phone:     phone,
		Step:      models.StepWaitingForFrom,
		AIEnabled: true,
		CreatedAt: time.Now(),
	}
	f.convs[phone] = c
	return c, nil
}

func (f *fakeConvRepo) Save(conv *models.Conversation) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.convs[conv.Phone] = conv
	return nil
}

func (f *fakeConvRepo) Reset(phone string) error {
	if c, ok := f.convs[phone]; ok {
		c.Step = models.StepWaitingForFrom
		c.Slots = models.RideSlots{}
		c.History = nil
		c.LastValidContext = nil
	}
	return nil
}

func (f *fakeConvRepo) ListStale(cutoff time.Time) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range f.convs {
		if c.LastMessageAt.Before(cutoff) && c.Step != models.StepCompleted {
			out = append(out, *c)
		}
	}
	return out, nil
}

// fakeEngine scripts the decision engine: each Book call pops the next
// outcome and records the request it saw.
type fakeEngine struct {
	outcomes []*models.BookingOutcome
	bookErr  error
	requests []booking.BookingRequest
	ranked   []models.RankedDriver
	rankErr  error
}

func (f *fakeEngine) Book(ctx context.Context, req booking.BookingRequest) (*models.BookingOutcome, error) {
	f.requests = append(f.requests, req)
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	if len(f.outcomes) == 0 {
		return nil, fmt.Errorf("no scripted outcome")
	}
	out := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	return out, nil
}

func (f *fakeEngine) GetRideStatus(rideID string) (*models.Ride, error) {
	return nil, fmt.Errorf("ride %s not found", rideID)
}

func (f *fakeEngine) DetectConflicts(ctx context.Context, driverPhone, riderPhone string, start, end time.Time) (*models.ConflictReport, error) {
	return &models.ConflictReport{}, nil
}

func (f *fakeEngine) ValidatePickupDistance(ctx context.Context, driverPhone, pickup string, requestedTime time.Time) (*booking.ProximityResult, error) {
	return &booking.ProximityResult{Valid: true}, nil
}

func (f *fakeEngine) FindNearestAvailable(ctx context.Context, pickup string, requestedTime time.Time, maxResults int) ([]models.RankedDriver, error) {
	return f.ranked, f.rankErr
}

func (f *fakeEngine) Stats() (map[models.RideStatus]int64, error) {
	return nil, nil
}

// fakeResolver echoes addresses back, failing the ones marked vague.
type fakeResolver struct {
	vague map[string]bool
}

func (f *fakeResolver) DistanceBetween(ctx context.Context, origin, destination string) (*maps.Leg, error) {
	return nil, nil
}

func (f *fakeResolver) ResolveAddress(ctx context.Context, address string) (string, error) {
	if f.vague[address] {
		return "", fmt.Errorf("address too vague: %s", address)
	}
	return address, nil
}

// fakeExtractor pops a scripted extraction per turn.
type fakeExtractor struct {
	extractions []models.Extraction
}

func (f *fakeExtractor) Extract(ctx context.Context, phone string, history []models.Message) models.Extraction {
	if len(f.extractions) == 0 {
		return models.Extraction{ResponseType: models.ResponseVague}
	}
	ex := f.extractions[0]
	f.extractions = f.extractions[1:]
	return ex
}

const riderPhone = "+923007770000"

func acceptedOutcome(requested time.Time) *models.BookingOutcome {
	return &models.BookingOutcome{
		Success:       true,
		RideID:        "ride-1",
		Status:        models.StatusAutoAccepted,
		RequestedTime: requested,
	}
}

func rejectedOutcome(reason models.RejectionReason) *models.BookingOutcome {
	return &models.BookingOutcome{
		Success:         false,
		RideID:          "ride-1",
		Status:          models.StatusAutoRejected,
		RejectionReason: reason,
		ConflictResolution: &models.ConflictResolution{
			Type: reason,
		},
	}
}

func newStepService(engine *fakeEngine) (*DefaultConversationService, *fakeConvRepo) {
	pinConfig()
	repo := newFakeConvRepo()
	svc := NewDefaultConversationService(repo, engine, &fakeResolver{}, nil, nil)
	return svc, repo
}

func TestHandleMessageRejectsInvalidSender(t *testing.T) {
	svc, _ := newStepService(&fakeEngine{})
	if _, err := svc.HandleMessage(context.Background(), "garbage", "hello"); err == nil {
		t.Fatal("expected an error for an invalid sender phone")
	}
}

func TestHandleMessageStepFlowBooksRide(t *testing.T) {
	engine := &fakeEngine{}
	svc, repo := newStepService(engine)
	ctx := context.Background()

	turns := []struct {
		text       string
		wantInside string
	}{
		{"Mall Road", "Where are you going?"},
		{"Airport", "When do you need the ride?"},
		{"tomorrow 9am", "Which driver"},
	}
	for _, turn := range turns {
		reply, err := svc.HandleMessage(ctx, riderPhone, turn.text)
		if err != nil {
			t.Fatalf("HandleMessage(%q): %v", turn.text, err)
		}
		if !strings.Contains(reply, turn.wantInside) {
			t.Fatalf("reply to %q = %q, want it to contain %q", turn.text, reply, turn.wantInside)
		}
	}

	conv := repo.convs[riderPhone]
	engine.outcomes = []*models.BookingOutcome{acceptedOutcome(*conv.Slots.Time)}

	reply, err := svc.HandleMessage(ctx, riderPhone, "923001112233")
	if err != nil {
		t.Fatalf("HandleMessage(driver): %v", err)
	}
	if !strings.Contains(reply, "confirmed") {
		t.Fatalf("reply = %q, want a confirmation", reply)
	}

	if len(engine.requests) != 1 {
		t.Fatalf("engine called %d times, want 1", len(engine.requests))
	}
	req := engine.requests[0]
	if req.From != "Mall Road" || req.To != "Airport" || req.RiderPhone != riderPhone {
		t.Errorf("request = %+v", req)
	}
	if req.DriverPhone != "+923001112233" {
		t.Errorf("driver phone = %q, want normalized +923001112233", req.DriverPhone)
	}

	conv = repo.convs[riderPhone]
	if conv.Step != models.StepCompleted {
		t.Errorf("step = %s, want %s", conv.Step, models.StepCompleted)
	}
	if conv.Slots != (models.RideSlots{}) {
		t.Errorf("slots not cleared: %+v", conv.Slots)
	}
}

func TestHandleMessageRestartClearsState(t *testing.T) {
	svc, repo := newStepService(&fakeEngine{})
	ctx := context.Background()

	when := time.Now().Add(2 * time.Hour)
	repo.convs[riderPhone] = &models.Conversation{
		Phone: riderPhone,
		Step:  models.StepWaitingForDriver,
		Slots: models.RideSlots{From: "Mall Road", To: "Airport", Time: &when},
	}

	reply, err := svc.HandleMessage(ctx, riderPhone, "restart")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if reply != restartText {
		t.Errorf("reply = %q, want %q", reply, restartText)
	}

	conv := repo.convs[riderPhone]
	if conv.Step != models.StepWaitingForFrom {
		t.Errorf("step = %s, want %s", conv.Step, models.StepWaitingForFrom)
	}
	if conv.Slots != (models.RideSlots{}) {
		t.Errorf("slots not cleared: %+v", conv.Slots)
	}
}

func TestHandleMessageAutoAssignBooksTopCandidate(t *testing.T) {
	when := time.Now().Add(2 * time.Hour)
	engine := &fakeEngine{
		ranked: []models.RankedDriver{
			{DriverPhone: "+923001110001", Name: "Asif", Score: 0.9},
			{DriverPhone: "+923001110002", Name: "Bilal", Score: 0.7},
		},
		outcomes: []*models.BookingOutcome{acceptedOutcome(when)},
	}
	svc, repo := newStepService(engine)

	repo.convs[riderPhone] = &models.Conversation{
		Phone: riderPhone,
		Step:  models.StepWaitingForDriver,
		Slots: models.RideSlots{From: "Mall Road", To: "Airport", Time: &when},
	}

	if _, err := svc.HandleMessage(context.Background(), riderPhone, "auto"); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(engine.requests) != 1 || engine.requests[0].DriverPhone != "+923001110001" {
		t.Fatalf("requests = %+v, want one booking for the top candidate", engine.requests)
	}
}

func TestHandleMessageAutoAssignNoDrivers(t *testing.T) {
	when := time.Now().Add(2 * time.Hour)
	engine := &fakeEngine{}
	svc, repo := newStepService(engine)

	repo.convs[riderPhone] = &models.Conversation{
		Phone: riderPhone,
		Step:  models.StepWaitingForDriver,
		Slots: models.RideSlots{From: "Mall Road", To: "Airport", Time: &when},
	}

	reply, err := svc.HandleMessage(context.Background(), riderPhone, "auto")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !strings.Contains(reply, "No drivers are available") {
		t.Errorf("reply = %q", reply)
	}
	if len(engine.requests) != 0 {
		t.Error("no booking should be attempted without a candidate")
	}
}

func TestHandleMessageRiderConflictBranchesToTimes(t *testing.T) {
	y, mo, d := time.Now().UTC().AddDate(0, 0, 2).Date()
	when := time.Date(y, mo, d, 12, 0, 0, 0, time.UTC)

	rejection := rejectedOutcome(models.ReasonRiderConflict)
	rejection.ConflictResolution.SuggestedTimes = booking.SuggestAlternativeTimes(when, time.Now())
	engine := &fakeEngine{outcomes: []*models.BookingOutcome{rejection}}
	svc, repo := newStepService(engine)
	ctx := context.Background()

	repo.convs[riderPhone] = &models.Conversation{
		Phone: riderPhone,
		Step:  models.StepWaitingForDriver,
		Slots: models.RideSlots{From: "Mall Road", To: "Airport", Time: &when},
	}

	if _, err := svc.HandleMessage(ctx, riderPhone, "+923001112233"); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	conv := repo.convs[riderPhone]
	if conv.Step != models.StepWaitingForAlternativeTime {
		t.Fatalf("step = %s, want %s", conv.Step, models.StepWaitingForAlternativeTime)
	}
	if conv.Slots.Time == nil || !conv.Slots.Time.Equal(when) {
		t.Fatal("original requested time must survive the rejection")
	}

	// Selecting "1" rebooks at the first suggested offset.
	engine.outcomes = []*models.BookingOutcome{acceptedOutcome(when.Add(time.Hour))}
	if _, err := svc.HandleMessage(ctx, riderPhone, "1"); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(engine.requests) != 2 {
		t.Fatalf("engine called %d times, want 2", len(engine.requests))
	}
	wantTime := booking.SuggestAlternativeTimes(when, time.Now())[0].Time
	if !engine.requests[1].RequestedTime.Equal(wantTime) {
		t.Errorf("rebooked at %v, want %v", engine.requests[1].RequestedTime, wantTime)
	}
}

func TestHandleMessageDriverConflictBranchesToDrivers(t *testing.T) {
	when := time.Now().Add(2 * time.Hour)
	engine := &fakeEngine{outcomes: []*models.BookingOutcome{rejectedOutcome(models.ReasonDriverConflict)}}
	svc, repo := newStepService(engine)
	ctx := context.Background()

	repo.convs[riderPhone] = &models.Conversation{
		Phone: riderPhone,
		Step:  models.StepWaitingForDriver,
		Slots: models.RideSlots{From: "Mall Road", To: "Airport", Time: &when},
	}

	if _, err := svc.HandleMessage(ctx, riderPhone, "+923001112233"); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	conv := repo.convs[riderPhone]
	if conv.Step != models.StepWaitingForAlternativeDriver {
		t.Fatalf("step = %s, want %s", conv.Step, models.StepWaitingForAlternativeDriver)
	}
	if conv.Slots.DriverPhone != "" {
		t.Error("conflicted driver must be cleared from the slots")
	}

	// "list" in the branch shows candidates without booking.
	engine.ranked = []models.RankedDriver{{DriverPhone: "+923001110002", Name: "Bilal", Rating: 4.8, DistanceKm: 2}}
	reply, err := svc.HandleMessage(ctx, riderPhone, "list")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !strings.Contains(reply, "Bilal") {
		t.Errorf("reply = %q, want the candidate list", reply)
	}
	if len(engine.requests) != 1 {
		t.Error("listing candidates must not book")
	}

	// Naming a new driver books again.
	engine.outcomes = []*models.BookingOutcome{acceptedOutcome(when)}
	if _, err := svc.HandleMessage(ctx, riderPhone, "+923001110002"); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(engine.requests) != 2 || engine.requests[1].DriverPhone != "+923001110002" {
		t.Fatalf("requests = %+v", engine.requests)
	}
}

func TestHandleMessageDriverConflictDigitSelectsCandidate(t *testing.T) {
	when := time.Now().Add(2 * time.Hour)
	engine := &fakeEngine{
		outcomes: []*models.BookingOutcome{acceptedOutcome(when)},
		ranked: []models.RankedDriver{
			{DriverPhone: "+923001110001", Name: "Asad", Rating: 4.9, DistanceKm: 1},
			{DriverPhone: "+923001110002", Name: "Bilal", Rating: 4.8, DistanceKm: 2},
		},
	}
	svc, repo := newStepService(engine)
	ctx := context.Background()

	repo.convs[riderPhone] = &models.Conversation{
		Phone: riderPhone,
		Step:  models.StepWaitingForAlternativeDriver,
		Slots: models.RideSlots{From: "Mall Road", To: "Airport", Time: &when},
	}

	if _, err := svc.HandleMessage(ctx, riderPhone, "2"); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(engine.requests) != 1 || engine.requests[0].DriverPhone != "+923001110002" {
		t.Fatalf("requests = %+v, want the second ranked driver booked", engine.requests)
	}

	// An out-of-range digit reprompts without booking.
	repo.convs[riderPhone] = &models.Conversation{
		Phone: riderPhone,
		Step:  models.StepWaitingForAlternativeDriver,
		Slots: models.RideSlots{From: "Mall Road", To: "Airport", Time: &when},
	}
	reply, err := svc.HandleMessage(ctx, riderPhone, "7")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(engine.requests) != 1 {
		t.Error("an out-of-range selection must not book")
	}
	if !strings.Contains(reply, "number of a listed driver") {
		t.Errorf("reply = %q, want the branch prompt", reply)
	}
}

func TestHandleMessageBusyEngine(t *testing.T) {
	when := time.Now().Add(2 * time.Hour)
	engine := &fakeEngine{bookErr: booking.ErrBookingBusy}
	svc, repo := newStepService(engine)

	repo.convs[riderPhone] = &models.Conversation{
		Phone: riderPhone,
		Step:  models.StepWaitingForDriver,
		Slots: models.RideSlots{From: "Mall Road", To: "Airport", Time: &when},
	}

	reply, err := svc.HandleMessage(context.Background(), riderPhone, "+923001112233")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !strings.Contains(reply, "few seconds") {
		t.Errorf("reply = %q, want the busy message", reply)
	}
	conv := repo.convs[riderPhone]
	if conv.Slots.From != "Mall Road" {
		t.Error("a busy engine must not lose collected slots")
	}
}

func TestHandleMessageVagueAddressReprompts(t *testing.T) {
	pinConfig()
	repo := newFakeConvRepo()
	svc := NewDefaultConversationService(repo, &fakeEngine{}, &fakeResolver{vague: map[string]bool{"here": true}}, nil, nil)

	reply, err := svc.HandleMessage(context.Background(), riderPhone, "here")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !strings.Contains(reply, "more specific") {
		t.Errorf("reply = %q, want a reprompt", reply)
	}
	if repo.convs[riderPhone].Step != models.StepWaitingForFrom {
		t.Error("step must not advance on a vague address")
	}
}

func TestHandleMessageAIModeToggle(t *testing.T) {
	pinConfig()
	repo := newFakeConvRepo()
	extractor := &fakeExtractor{extractions: []models.Extraction{
		{From: "Mall Road", To: "Airport", ResponseType: models.ResponseLocation},
	}}
	svc := NewDefaultConversationService(repo, &fakeEngine{}, &fakeResolver{}, extractor, nil)
	ctx := context.Background()

	reply, err := svc.HandleMessage(ctx, riderPhone, "disable ai")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !strings.Contains(reply, "Step-by-step") {
		t.Errorf("reply = %q", reply)
	}
	if repo.convs[riderPhone].AIEnabled {
		t.Error("AI mode must be off after the command")
	}

	if _, err := svc.HandleMessage(ctx, riderPhone, "enable ai"); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !repo.convs[riderPhone].AIEnabled {
		t.Error("AI mode must be back on")
	}
}

func TestHandleMessageAIPreservesConfirmedSlots(t *testing.T) {
	pinConfig()
	repo := newFakeConvRepo()
	extractor := &fakeExtractor{extractions: []models.Extraction{
		{From: "Mall Road", To: "Airport", ResponseType: models.ResponseLocation},
		{To: "Cantt", ResponseType: models.ResponseLocation},
		{ResponseType: models.ResponseVague},
	}}
	svc := NewDefaultConversationService(repo, &fakeEngine{}, &fakeResolver{}, extractor, nil)
	ctx := context.Background()

	if _, err := svc.HandleMessage(ctx, riderPhone, "ride from Mall Road to Airport"); err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	conv := repo.convs[riderPhone]
	if conv.Slots.From != "Mall Road" || conv.Slots.To != "Airport" {
		t.Fatalf("slots after turn 1 = %+v", conv.Slots)
	}

	// A correction touches only the field it mentions.
	if _, err := svc.HandleMessage(ctx, riderPhone, "actually make it Cantt"); err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	conv = repo.convs[riderPhone]
	if conv.Slots.From != "Mall Road" {
		t.Errorf("pickup lost on correction: %+v", conv.Slots)
	}
	if conv.Slots.To != "Cantt" {
		t.Errorf("destination not updated: %+v", conv.Slots)
	}

	// A turn the extractor cannot read changes nothing and replays the
	// collected slots.
	reply, err := svc.HandleMessage(ctx, riderPhone, "hmmmm")
	if err != nil {
		t.Fatalf("turn 3: %v", err)
	}
	if !strings.Contains(reply, "Cantt") {
		t.Errorf("reply = %q, want the slot summary", reply)
	}
	conv = repo.convs[riderPhone]
	if conv.Slots.From != "Mall Road" || conv.Slots.To != "Cantt" {
		t.Errorf("vague turn must not disturb slots: %+v", conv.Slots)
	}
	if conv.LastValidContext == nil || conv.LastValidContext.From != "Mall Road" {
		t.Errorf("last valid context = %+v", conv.LastValidContext)
	}
}

func TestHandleMessageAIRejectionAsksWhatToChange(t *testing.T) {
	pinConfig()
	repo := newFakeConvRepo()
	extractor := &fakeExtractor{extractions: []models.Extraction{
		{ResponseType: models.ResponseRejection},
	}}
	svc := NewDefaultConversationService(repo, &fakeEngine{}, &fakeResolver{}, extractor, nil)

	reply, err := svc.HandleMessage(context.Background(), riderPhone, "no that's wrong")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !strings.Contains(reply, "Tell me what to change") {
		t.Errorf("reply = %q", reply)
	}
}

func TestHandleMessageAICompleteSlotsBook(t *testing.T) {
	pinConfig()
	y, mo, d := time.Now().UTC().AddDate(0, 0, 1).Date()
	when := time.Date(y, mo, d, 9, 0, 0, 0, time.UTC)

	repo := newFakeConvRepo()
	engine := &fakeEngine{outcomes: []*models.BookingOutcome{acceptedOutcome(when)}}
	extractor := &fakeExtractor{extractions: []models.Extraction{{
		From:         "Mall Road",
		To:           "Airport",
		DateTime:     when.Format("2006-01-02 15:04"),
		DriverPhone:  "+923001112233",
		ResponseType: models.ResponseConfirmation,
	}}}
	svc := NewDefaultConversationService(repo, engine, &fakeResolver{}, extractor, nil)

	reply, err := svc.HandleMessage(context.Background(), riderPhone, "book me Mall Road to Airport tomorrow 9am with +923001112233")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !strings.Contains(reply, "confirmed") {
		t.Fatalf("reply = %q", reply)
	}
	if len(engine.requests) != 1 {
		t.Fatalf("engine called %d times, want 1", len(engine.requests))
	}
	req := engine.requests[0]
	if req.From != "Mall Road" || req.To != "Airport" || req.DriverPhone != "+923001112233" {
		t.Errorf("request = %+v", req)
	}
	if !req.RequestedTime.Equal(when) {
		t.Errorf("requested time = %v, want %v", req.RequestedTime, when)
	}
	if repo.convs[riderPhone].Step != models.StepCompleted {
		t.Errorf("step = %s, want %s", repo.convs[riderPhone].Step, models.StepCompleted)
	}
}
