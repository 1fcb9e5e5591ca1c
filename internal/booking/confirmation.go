package booking

import (
	"errors"
	"strings"
	"time"

	"github.com/dangtuan21/hana-salon/pkg/logging"
)

// ConfirmationOutcome describes what the confirmation step did in a turn.
type ConfirmationOutcome int

const (
	// ConfirmationNone: the trigger conditions did not hold; nothing changed.
	ConfirmationNone ConfirmationOutcome = iota
	// ConfirmationImmediate: the date/time resolved unambiguously and was
	// committed without a handshake.
	ConfirmationImmediate
	// ConfirmationRequested: an ambiguous interpretation was parked as the
	// session's pending confirmation, awaiting the customer's approval.
	ConfirmationRequested
	// ConfirmationSuperseded: a new date/time replaced an earlier pending
	// confirmation that was never approved.
	ConfirmationSuperseded
	// ConfirmationParseFailed: the literals could not be interpreted at all.
	ConfirmationParseFailed
)

// ConfirmationEngine runs the per-session date/time handshake: ambiguous
// input opens a single pending confirmation, unambiguous input commits
// immediately, and an explicit customer affirmation consumes the pending
// record. One transition per turn, no re-entrancy.
type ConfirmationEngine struct {
	now    func() time.Time
	logger *logging.Logger
}

// NewConfirmationEngine constructs the engine. now is the reference clock
// for relative-date resolution; nil means time.Now.
func NewConfirmationEngine(now func() time.Time, logger *logging.Logger) *ConfirmationEngine {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ConfirmationEngine{now: now, logger: logger}
}

// Evaluate runs the transition-in step for one turn. It fires only when
// both date and time literals are present, at least one of them changed
// this turn (or a pending record exists to supersede), the session's
// date/time is not already confirmed, and the customer's identity fields
// are populated. Deferring until identity is known avoids asking for a
// second confirmation right after collecting the name.
func (e *ConfirmationEngine) Evaluate(sess *SessionState, changed FieldChanges) ConfirmationOutcome {
	st := sess.Booking
	if st.DateRequested == "" || st.TimeRequested == "" {
		return ConfirmationNone
	}
	if st.DateTimeConfirmation == ConfirmationConfirmed && !changed.Date && !changed.Time {
		return ConfirmationNone
	}
	if !changed.Date && !changed.Time && sess.Pending != nil {
		return ConfirmationNone
	}
	if st.CustomerName == "" || st.CustomerPhone == "" {
		return ConfirmationNone
	}

	date, dateErr := ResolveDate(st.DateRequested, e.now())
	clock, timeErr := ResolveTime(st.TimeRequested)
	if dateErr != nil || timeErr != nil {
		e.logger.Warn("date/time parse failed",
			"date", st.DateRequested, "time", st.TimeRequested,
			"error", errors.Join(dateErr, timeErr))
		return ConfirmationParseFailed
	}

	if !date.Ambiguous && !clock.Ambiguous {
		st.AppointmentDate = date.Value
		st.StartTime = clock.Value
		st.DateTimeConfirmation = ConfirmationConfirmed
		sess.Pending = nil
		e.logger.Info("date/time confirmed without handshake",
			"date", date.Value, "time", clock.Value)
		return ConfirmationImmediate
	}

	superseding := sess.Pending != nil
	sess.Pending = &PendingConfirmation{
		OriginalDate:  st.DateRequested,
		OriginalTime:  st.TimeRequested,
		ParsedDate:    date.Value,
		ParsedTime:    clock.Value,
		FormattedDate: FormatDateForCustomer(date.Value),
		FormattedTime: FormatTimeForCustomer(clock.Value),
		Services:      st.ServicesRequested,
	}
	st.DateTimeConfirmation = ConfirmationPending
	if superseding {
		e.logger.Info("pending confirmation superseded",
			"date", date.Value, "time", clock.Value)
		return ConfirmationSuperseded
	}
	e.logger.Info("pending confirmation opened",
		"date", date.Value, "time", clock.Value)
	return ConfirmationRequested
}

// Confirm applies the pending interpretation after an explicit customer
// affirmation: the parsed values become the appointment date and start
// time, the status flips to confirmed, and the pending record is cleared.
// Returns false when there was nothing pending.
func (e *ConfirmationEngine) Confirm(sess *SessionState) bool {
	if sess.Pending == nil {
		return false
	}
	st := sess.Booking
	st.AppointmentDate = sess.Pending.ParsedDate
	st.StartTime = sess.Pending.ParsedTime
	st.DateTimeConfirmation = ConfirmationConfirmed
	sess.Pending = nil
	return true
}

// affirmations is the vocabulary an explicit confirmation may open with.
var affirmations = []string{
	"yes", "yeah", "yep", "correct", "right", "that's right",
	"confirm", "confirmed", "ok", "okay", "sure", "absolutely",
	"exactly", "perfect", "good", "sounds good", "that works",
}

// IsAffirmation reports whether a message is an explicit confirmation.
// Matching is case-insensitive with trailing punctuation stripped, exact
// or prefix ("yes please" counts, "yesterday" does not).
func IsAffirmation(message string) bool {
	s := strings.ToLower(strings.TrimSpace(message))
	s = strings.TrimRight(s, ".!?,")
	if s == "" {
		return false
	}
	for _, phrase := range affirmations {
		if s == phrase {
			return true
		}
		if strings.HasPrefix(s, phrase+" ") {
			return true
		}
	}
	return false
}
