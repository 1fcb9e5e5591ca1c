// Package conversation orchestrates one booking conversation turn:
// merging extracted field updates into the session, running the
// confirmation handshake, executing requested actions, and shaping the
// response. The natural-language extraction itself is an external
// collaborator; this package consumes its structured output.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dangtuan21/hana-salon/internal/booking"
	"github.com/dangtuan21/hana-salon/internal/observability/metrics"
	"github.com/dangtuan21/hana-salon/internal/session"
	"github.com/dangtuan21/hana-salon/pkg/logging"
)

// TurnInput is one turn's worth of caller-provided data: the raw customer
// message plus the extraction collaborator's structured output.
type TurnInput struct {
	SessionID string               `json:"sessionId"`
	Message   string               `json:"message"`
	Updates   booking.FieldUpdates `json:"fieldUpdates"`
	Actions   []string             `json:"requestedActions"`
}

// TurnResult is the per-turn contract. ActionsTaken carries result codes,
// never raw errors; the response text is always well formed even when a
// step failed.
type TurnResult struct {
	SessionID              string                    `json:"sessionId"`
	ResponseText           string                    `json:"responseText"`
	BookingState           *booking.BookingState     `json:"bookingState"`
	ActionsTaken           []string                  `json:"actionsTaken"`
	ConversationComplete   bool                      `json:"conversationComplete"`
	AlternativeSuggestions []booking.AlternativeSlot `json:"alternativeSuggestions,omitempty"`
}

// Engine drives conversation turns over a session store.
type Engine struct {
	store    session.Store
	archive  *session.TranscriptArchive
	executor *booking.Executor
	confirm  *booking.ConfirmationEngine
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewEngine wires the turn pipeline. archive and m may be nil.
func NewEngine(store session.Store, archive *session.TranscriptArchive, executor *booking.Executor, confirm *booking.ConfirmationEngine, m *metrics.BookingMetrics, logger *logging.Logger) *Engine {
	if store == nil {
		panic("conversation: session store required")
	}
	if executor == nil {
		panic("conversation: executor required")
	}
	if confirm == nil {
		panic("conversation: confirmation engine required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		store:    store,
		archive:  archive,
		executor: executor,
		confirm:  confirm,
		metrics:  m,
		logger:   logger.Component("conversation"),
		tracer:   otel.Tracer("hanasalon.internal.conversation"),
	}
}

// Start creates a new session and returns the opening turn.
func (e *Engine) Start(ctx context.Context) (*TurnResult, error) {
	ctx, span := e.tracer.Start(ctx, "conversation.start")
	defer span.End()

	s := session.New("")
	greeting := "Hi! Welcome to Hana Salon. What service would you like to book?"
	s.Record("assistant", greeting)
	if err := e.store.Create(ctx, s); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to create session: %w", err)
	}
	e.logger.Info("conversation started", "session_id", s.ID)
	return &TurnResult{
		SessionID:    s.ID,
		ResponseText: greeting,
		BookingState: s.Booking,
	}, nil
}

// ProcessTurn runs one conversation turn. The steps are strictly ordered:
// transcript, alternative-slot selection, field merge, confirmation
// transition, action execution, response shaping. A lookup miss for the
// session ID is the one hard error; everything else degrades into result
// codes and response text.
func (e *Engine) ProcessTurn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	ctx, span := e.tracer.Start(ctx, "conversation.process_turn")
	defer span.End()
	started := time.Now()

	s, err := e.store.Get(ctx, in.SessionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("session.id", s.ID))

	s.Record("user", in.Message)

	actions := append([]string(nil), in.Actions...)

	// A customer picking one of the offered alternatives re-targets the
	// booking and forces a full chain re-validation.
	slot := matchAlternative(s.Booking, in.Message)
	if slot != nil {
		e.applyAlternative(s, slot)
		actions = prependAction(actions, booking.ActionCheckAvailability)
	}

	changed := s.Booking.ApplyFieldUpdates(in.Updates)
	s.Booking.PopulateServices()
	if slot != nil {
		// The selected slot already fixed the time; a same-turn extraction
		// echo of it must not reopen the confirmation handshake.
		s.Booking.TimeRequested = slot.Time
		changed = booking.FieldChanges{}
	}

	// An affirmation while a confirmation is pending consumes it before
	// any other action runs.
	if s.Pending != nil && booking.IsAffirmation(in.Message) {
		actions = prependAction(actions, booking.ActionConfirmDateTime)
	}

	outcome := e.confirm.Evaluate(&s.SessionState, changed)

	results := e.executor.Execute(ctx, &s.SessionState, actions)
	for _, r := range results {
		e.metrics.ObserveAction(resultCode(r))
		if r == booking.ResultBookingCreated {
			e.metrics.ObserveBookingCreated()
		}
		if r == booking.ResultConflictWithOptions {
			e.metrics.ObserveConflict()
		}
	}

	response := e.composeResponse(s, outcome, results)
	s.Record("assistant", response)

	if err := e.store.Update(ctx, s); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to persist session: %w", err)
	}
	if s.ConversationComplete {
		if err := e.archive.Archive(ctx, s); err != nil {
			e.logger.Error("transcript archive failed", "session_id", s.ID, "error", err)
		}
	}

	e.metrics.ObserveTurn(turnOutcome(outcome, results), time.Since(started).Seconds())
	e.logger.Info("turn processed",
		"session_id", s.ID, "actions", results,
		"complete", s.ConversationComplete)

	return &TurnResult{
		SessionID:              s.ID,
		ResponseText:           response,
		BookingState:           s.Booking,
		ActionsTaken:           results,
		ConversationComplete:   s.ConversationComplete,
		AlternativeSuggestions: s.Booking.AlternativeTimes,
	}, nil
}

// End archives and deletes a session. Unknown sessions are not an error;
// the customer's intent is satisfied either way.
func (e *Engine) End(ctx context.Context, sessionID string) error {
	ctx, span := e.tracer.Start(ctx, "conversation.end")
	defer span.End()

	s, err := e.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if err := e.archive.Archive(ctx, s); err != nil {
		e.logger.Error("transcript archive failed", "session_id", sessionID, "error", err)
	}
	return e.store.Delete(ctx, sessionID)
}

// Session returns the current session state.
func (e *Engine) Session(ctx context.Context, sessionID string) (*session.Session, error) {
	return e.store.Get(ctx, sessionID)
}

// Stats reports live-session statistics when the configured store can
// enumerate sessions.
func (e *Engine) Stats(ctx context.Context) (session.Stats, bool, error) {
	provider, ok := e.store.(session.StatsProvider)
	if !ok {
		return session.Stats{}, false, nil
	}
	st, err := provider.Stats(ctx)
	return st, true, err
}

func prependAction(actions []string, a booking.Action) []string {
	for _, existing := range actions {
		if strings.TrimSpace(existing) == string(a) {
			return actions
		}
	}
	return append([]string{string(a)}, actions...)
}

// matchAlternative reports which offered slot, if any, the message picks.
// Accepts "10:30", "10.30", "1030", and bare-hour "10" for "10:00".
func matchAlternative(st *booking.BookingState, message string) *booking.AlternativeSlot {
	if len(st.AlternativeTimes) == 0 {
		return nil
	}
	input := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(message)), ".", ":")
	if input == "" {
		return nil
	}
	bare := strings.ReplaceAll(input, ":", "")
	for i := range st.AlternativeTimes {
		alt := st.AlternativeTimes[i].Time
		switch {
		case alt == input,
			strings.ReplaceAll(alt, ":", "") == bare,
			isDigits(input) && alt == input+":00":
			return &st.AlternativeTimes[i]
		}
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// applyAlternative re-targets the booking at the chosen slot. Assignments
// are cleared so the follow-up availability check re-validates the whole
// chain at the new time instead of trusting the first-service-only scan.
func (e *Engine) applyAlternative(s *session.Session, slot *booking.AlternativeSlot) {
	st := s.Booking
	st.TimeRequested = slot.Time
	st.StartTime = slot.Time
	st.EndTime = ""
	st.DateTimeConfirmation = booking.ConfirmationConfirmed
	for i := range st.Services {
		st.Services[i].TechnicianID = ""
	}
	st.AlternativeTimes = nil
	s.Pending = nil
	e.logger.Info("alternative slot selected",
		"session_id", s.ID, "time", slot.Time, "technician", slot.TechnicianName)
}

// composeResponse renders a deterministic reply for the turn. The wording
// is intentionally plain; a presentation layer may rewrite it.
func (e *Engine) composeResponse(s *session.Session, outcome booking.ConfirmationOutcome, results []string) string {
	st := s.Booking

	for _, r := range results {
		switch resultCode(r) {
		case booking.ResultBookingCreated:
			if r == booking.ResultBookingCreated {
				return fmt.Sprintf(
					"You're all set, %s! Your appointment is booked for %s at %s. See you then!",
					st.CustomerName,
					booking.FormatDateForCustomer(st.AppointmentDate),
					booking.FormatTimeForCustomer(st.StartTime))
			}
			return "I couldn't finish creating your booking just now. Let's try again in a moment."
		case booking.ResultBackendUnavailable:
			return "I'm having trouble reaching our scheduling system. Could you try again in a moment?"
		case booking.ResultBookingCancelled:
			return "Your booking has been cancelled. We hope to see you another time!"
		}
	}

	if len(st.AlternativeTimes) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "That time isn't available, but here's what we do have on %s:\n",
			booking.FormatDateForCustomer(st.AppointmentDate))
		for _, alt := range st.AlternativeTimes {
			fmt.Fprintf(&b, "- %s with %s\n",
				booking.FormatTimeForCustomer(alt.Time), alt.TechnicianName)
		}
		b.WriteString("Would any of these work for you?")
		return b.String()
	}

	switch outcome {
	case booking.ConfirmationRequested, booking.ConfirmationSuperseded:
		p := s.Pending
		return fmt.Sprintf("Just to confirm: did you mean %s at %s?",
			p.FormattedDate, p.FormattedTime)
	case booking.ConfirmationParseFailed:
		return "I couldn't quite make out that date or time. Could you rephrase it, like \"Friday at 3pm\"?"
	}

	for _, r := range results {
		if strings.HasPrefix(r, booking.ResultNoAvailabilityAnytime) {
			return "I'm sorry, we're fully booked that day. Would another date work?"
		}
	}

	if missing := nextPrompt(st); missing != "" {
		return missing
	}
	if st.ReadyForBooking() {
		return fmt.Sprintf(
			"Great! %s at %s, $%.2f total for %d minutes. Shall I book it?",
			booking.FormatDateForCustomer(st.AppointmentDate),
			booking.FormatTimeForCustomer(st.StartTime),
			st.TotalPrice, st.TotalDuration)
	}
	return "Got it! What else can I help you with for your booking?"
}

// nextPrompt asks for the first missing conversational field.
func nextPrompt(st *booking.BookingState) string {
	switch {
	case strings.TrimSpace(st.ServicesRequested) == "":
		return "What service would you like to book?"
	case st.DateRequested == "":
		return "What day works best for you?"
	case st.TimeRequested == "":
		return "And what time would you like?"
	case st.CustomerName == "":
		return "Can I get your name for the booking?"
	case st.CustomerPhone == "":
		return "And a phone number to confirm the appointment?"
	}
	return ""
}

// resultCode strips the ": detail" annotation from a result string.
func resultCode(result string) string {
	if i := strings.Index(result, ":"); i >= 0 {
		return result[:i]
	}
	return result
}

// turnOutcome picks the metrics label for a turn: the first non-trivial
// action result, else the confirmation outcome.
func turnOutcome(outcome booking.ConfirmationOutcome, results []string) string {
	if len(results) > 0 {
		return resultCode(results[len(results)-1])
	}
	switch outcome {
	case booking.ConfirmationImmediate:
		return "datetime_confirmed"
	case booking.ConfirmationRequested, booking.ConfirmationSuperseded:
		return "confirmation_requested"
	case booking.ConfirmationParseFailed:
		return "parse_failed"
	}
	return "fields_updated"
}
