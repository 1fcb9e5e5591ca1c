package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/dangtuan21/hana-salon/pkg/logging"
)

// Action names the operations the extraction collaborator may request.
type Action string

const (
	ActionCheckAvailability Action = "check_availability"
	ActionConfirmDateTime   Action = "confirm_datetime"
	ActionGetTechnicians    Action = "get_technicians"
	ActionCreateBooking     Action = "create_booking"
	ActionCalculateCost     Action = "calculate_cost"
	ActionGetServices       Action = "get_services"
	ActionUpdateBooking     Action = "update_booking"
	ActionCancelBooking     Action = "cancel_booking"
)

// Result codes returned per executed action. Annotated variants append
// ": detail" after the code.
const (
	ResultAvailabilityChecked   = "availability_checked"
	ResultTechniciansRetrieved  = "technicians_retrieved"
	ResultBookingCreated        = "booking_created"
	ResultBookingNotReady       = "booking_not_ready"
	ResultCostCalculated        = "cost_calculated"
	ResultServicesRetrieved     = "services_retrieved"
	ResultBookingUpdated        = "booking_updated"
	ResultBookingUpdateFailed   = "booking_update_failed"
	ResultBookingCancelled      = "booking_cancelled"
	ResultDateTimeConfirmed     = "datetime_confirmed"
	ResultNoPending             = "no_pending_confirmation"
	ResultUnknownAction         = "unknown_action"
	ResultBackendUnavailable    = "backend_unavailable"
	ResultConflictWithOptions   = ResultAvailabilityChecked + ": conflict"
	ResultNoAvailabilityAnytime = ResultAvailabilityChecked + ": no availability"
)

type actionHandler func(ctx context.Context, sess *SessionState) string

// Executor dispatches session-requested actions through a closed handler
// table. Every handler validates its own preconditions and returns a
// result code; unknown action strings come back as an unknown_action
// result rather than an error, since the collaborator requesting them is
// an LLM that may ask for anything.
type Executor struct {
	gw       Gateway
	resolver *AvailabilityResolver
	confirm  *ConfirmationEngine
	logger   *logging.Logger
	handlers map[Action]actionHandler
}

// NewExecutor builds the dispatch table.
func NewExecutor(gw Gateway, resolver *AvailabilityResolver, confirm *ConfirmationEngine, logger *logging.Logger) *Executor {
	if gw == nil {
		panic("booking: gateway required")
	}
	if resolver == nil {
		panic("booking: availability resolver required")
	}
	if confirm == nil {
		panic("booking: confirmation engine required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	e := &Executor{gw: gw, resolver: resolver, confirm: confirm, logger: logger}
	e.handlers = map[Action]actionHandler{
		ActionCheckAvailability: e.checkAvailability,
		ActionConfirmDateTime:   e.confirmDateTime,
		ActionGetTechnicians:    e.getTechnicians,
		ActionCreateBooking:     e.createBooking,
		ActionCalculateCost:     e.calculateCost,
		ActionGetServices:       e.getServices,
		ActionUpdateBooking:     e.updateBooking,
		ActionCancelBooking:     e.cancelBooking,
	}
	return e
}

// Execute runs the requested actions in order, returning one result code
// per request. Repeating an action within a turn is harmless: cache
// refreshes overwrite, availability re-resolves from current state, and
// an already-consumed confirmation reports no_pending_confirmation.
func (e *Executor) Execute(ctx context.Context, sess *SessionState, requested []string) []string {
	results := make([]string, 0, len(requested))
	for _, raw := range requested {
		action := Action(strings.TrimSpace(raw))
		handler, ok := e.handlers[action]
		if !ok {
			results = append(results, ResultUnknownAction+": "+raw)
			continue
		}
		results = append(results, handler(ctx, sess))
	}
	return results
}

func (e *Executor) checkAvailability(ctx context.Context, sess *SessionState) string {
	st := sess.Booking
	if len(st.Services) == 0 {
		return ResultAvailabilityChecked + ": no services"
	}
	var missing []string
	if st.DateRequested == "" {
		missing = append(missing, "date")
	}
	if st.TimeRequested == "" {
		missing = append(missing, "time")
	}
	if len(missing) > 0 {
		return ResultAvailabilityChecked + ": missing " + strings.Join(missing, ", ")
	}

	res, err := e.resolver.Resolve(ctx, st)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotReady):
		return ResultAvailabilityChecked + ": date/time not confirmed"
	case errors.Is(err, ErrParseFailure):
		return ResultAvailabilityChecked + ": invalid date/time format"
	case errors.Is(err, ErrNoAvailability):
		return ResultAvailabilityChecked + ": no technicians for service"
	case errors.Is(err, ErrBackendUnavailable):
		e.logger.Error("availability check failed", "error", err)
		return ResultBackendUnavailable
	default:
		e.logger.Error("availability check failed", "error", err)
		return ResultAvailabilityChecked + ": error"
	}

	if res.Conflict {
		st.AlternativeTimes = res.Alternatives
		if len(res.Alternatives) == 0 {
			return ResultNoAvailabilityAnytime
		}
		return ResultConflictWithOptions
	}

	st.Services = res.Assigned
	st.RecomputeTotals()
	st.EndTime = res.EndTime
	st.AlternativeTimes = nil
	e.logger.Info("availability resolved",
		"date", st.AppointmentDate, "start", st.StartTime, "end", st.EndTime,
		"services", len(st.Services))
	return ResultAvailabilityChecked
}

func (e *Executor) confirmDateTime(_ context.Context, sess *SessionState) string {
	if e.confirm.Confirm(sess) {
		return ResultDateTimeConfirmed
	}
	return ResultNoPending
}

func (e *Executor) getTechnicians(ctx context.Context, sess *SessionState) string {
	st := sess.Booking
	names := st.RequestedServiceNames()
	if len(names) == 0 {
		techs, err := e.gw.AvailableTechnicians(ctx)
		if err != nil {
			e.logger.Error("technician lookup failed", "error", err)
			return ResultBackendUnavailable
		}
		st.AvailableTechnicians = techs
		return ResultTechniciansRetrieved
	}

	svc, err := e.gw.ServiceByName(ctx, names[0])
	if err != nil {
		e.logger.Error("service lookup failed", "service", names[0], "error", err)
		return ResultBackendUnavailable
	}
	if svc == nil {
		return ResultTechniciansRetrieved + ": service not found"
	}
	techs, err := e.gw.TechniciansForService(ctx, svc.ID)
	if err != nil {
		e.logger.Error("technician lookup failed", "service", svc.ID, "error", err)
		return ResultBackendUnavailable
	}
	st.AvailableTechnicians = techs
	return ResultTechniciansRetrieved
}

func (e *Executor) getServices(ctx context.Context, sess *SessionState) string {
	services, err := e.gw.Services(ctx)
	if err != nil {
		e.logger.Error("service catalog fetch failed", "error", err)
		return ResultBackendUnavailable
	}
	sess.Booking.AvailableServices = services
	sess.Booking.PopulateServices()
	return ResultServicesRetrieved
}

func (e *Executor) createBooking(ctx context.Context, sess *SessionState) string {
	st := sess.Booking
	if missing := st.MissingForBooking(); len(missing) > 0 {
		return ResultBookingNotReady + ": missing " + strings.Join(missing, ", ")
	}

	customer, result := e.ensureCustomer(ctx, st)
	if customer == nil {
		return result
	}
	st.CustomerID = customer.ID

	created, err := e.gw.CreateBooking(ctx, st.ToBackendBooking())
	if err != nil {
		e.logger.Error("booking creation failed", "error", err)
		if errors.Is(err, ErrBackendUnavailable) {
			return ResultBackendUnavailable
		}
		return ResultBookingCreated + ": backend creation failed"
	}

	st.Status = StatusConfirmed
	st.AlternativeTimes = nil
	sess.ConversationComplete = true
	e.logger.Info("booking created",
		"booking_id", created.ID, "customer_id", customer.ID,
		"date", st.AppointmentDate, "start", st.StartTime, "end", st.EndTime,
		"total_price", st.TotalPrice, "total_duration", st.TotalDuration)
	return ResultBookingCreated
}

// ensureCustomer resolves the session's customer: lookup by phone, create
// when absent. The stored phone is display-normalized; the name split is
// best effort (first token / remainder).
func (e *Executor) ensureCustomer(ctx context.Context, st *BookingState) (*Customer, string) {
	phone := NormalizePhone(st.CustomerPhone)
	customer, err := e.gw.CustomerByPhone(ctx, phone)
	if err != nil {
		e.logger.Error("customer lookup failed", "error", err)
		return nil, ResultBackendUnavailable
	}
	if customer != nil {
		return customer, ""
	}

	first, last := SplitName(st.CustomerName)
	customer, err = e.gw.CreateCustomer(ctx, NewCustomer{
		FirstName: first,
		LastName:  last,
		Phone:     phone,
	})
	if err != nil {
		e.logger.Error("customer creation failed", "error", err)
		if errors.Is(err, ErrBackendUnavailable) {
			return nil, ResultBackendUnavailable
		}
		return nil, ResultBookingCreated + ": customer creation failed"
	}
	return customer, ""
}

func (e *Executor) calculateCost(ctx context.Context, sess *SessionState) string {
	st := sess.Booking
	if len(st.RequestedServiceNames()) == 0 {
		return ResultCostCalculated + ": no service specified"
	}
	if len(st.AvailableServices) == 0 {
		services, err := e.gw.Services(ctx)
		if err != nil {
			e.logger.Error("service catalog fetch failed", "error", err)
			return ResultBackendUnavailable
		}
		st.AvailableServices = services
	}
	st.PopulateServices()
	if len(st.Services) == 0 {
		return ResultCostCalculated + ": service not found"
	}
	return ResultCostCalculated
}

func (e *Executor) updateBooking(_ context.Context, sess *SessionState) string {
	if sess.Booking.Status == StatusConfirmed {
		return ResultBookingUpdated
	}
	return ResultBookingUpdateFailed
}

func (e *Executor) cancelBooking(_ context.Context, sess *SessionState) string {
	st := sess.Booking
	st.Status = StatusCancelled
	st.AlternativeTimes = nil
	sess.ConversationComplete = true
	return ResultBookingCancelled
}
