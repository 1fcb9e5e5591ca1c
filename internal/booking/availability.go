package booking

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dangtuan21/hana-salon/pkg/logging"
)

// alternativeSlotStep is the spacing between candidate start times when
// searching for alternatives.
const alternativeSlotStep = 30

// maxAlternatives caps how many alternative slots a conflict produces.
const maxAlternatives = 5

// BusinessHours bounds the alternative-slot scan.
type BusinessHours struct {
	Open  string // HH:MM
	Close string // HH:MM
}

// DefaultBusinessHours covers a typical salon day.
var DefaultBusinessHours = BusinessHours{Open: "09:00", Close: "19:00"}

// ResolveResult is the outcome of resolving a service chain. Exactly one
// of the two shapes holds: Assigned non-nil with EndTime set, or Conflict
// true with zero or more Alternatives.
type ResolveResult struct {
	Assigned     []ServiceAssignment
	EndTime      string
	Conflict     bool
	Alternatives []AlternativeSlot
}

// AvailabilityResolver finds a technician assignment and a consistent
// start time for an ordered chain of services performed back-to-back,
// and synthesizes ranked alternative slots on conflict. Each service hop
// costs one batched backend round trip, never one per technician.
type AvailabilityResolver struct {
	gw     Gateway
	hours  BusinessHours
	logger *logging.Logger
	tracer trace.Tracer
}

// NewAvailabilityResolver constructs a resolver over the given gateway.
func NewAvailabilityResolver(gw Gateway, hours BusinessHours, logger *logging.Logger) *AvailabilityResolver {
	if gw == nil {
		panic("booking: gateway required")
	}
	if hours.Open == "" || hours.Close == "" {
		hours = DefaultBusinessHours
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilityResolver{
		gw:     gw,
		hours:  hours,
		logger: logger,
		tracer: otel.Tracer("hanasalon.internal.booking.availability"),
	}
}

// Resolve walks the service chain in order from date/startTime, assigning
// the best free technician to each hop. All-or-nothing: either every
// service gets a technician and the assignments are returned, or nothing
// is committed and the result carries alternative slots instead.
//
// Requires the session's date/time to be confirmed first; returns
// ErrNotReady otherwise.
func (r *AvailabilityResolver) Resolve(ctx context.Context, st *BookingState) (*ResolveResult, error) {
	ctx, span := r.tracer.Start(ctx, "booking.resolve_availability")
	defer span.End()

	if st.DateTimeConfirmation != ConfirmationConfirmed {
		return nil, fmt.Errorf("%w: date/time not confirmed", ErrNotReady)
	}
	if len(st.Services) == 0 {
		return nil, fmt.Errorf("%w: services", ErrMissingField)
	}
	date, start := st.AppointmentDate, st.StartTime
	if date == "" || start == "" {
		return nil, fmt.Errorf("%w: appointment date/time", ErrMissingField)
	}
	span.SetAttributes(
		attribute.String("booking.date", date),
		attribute.String("booking.start", start),
		attribute.Int("booking.services", len(st.Services)),
	)

	// Qualified technicians for the first service drive the alternative
	// search too, so fetch them once up front.
	firstTechs, err := r.gw.TechniciansForService(ctx, st.Services[0].ServiceID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(firstTechs) == 0 {
		return nil, fmt.Errorf("%w: no technicians for service %s", ErrNoAvailability, st.Services[0].ServiceID)
	}
	rankTechnicians(firstTechs)

	assigned := make([]ServiceAssignment, len(st.Services))
	copy(assigned, st.Services)

	cursor := start
	for i := range assigned {
		techs := firstTechs
		if i > 0 {
			techs, err = r.gw.TechniciansForService(ctx, assigned[i].ServiceID)
			if err != nil {
				span.RecordError(err)
				return nil, err
			}
			if len(techs) == 0 {
				return nil, fmt.Errorf("%w: no technicians for service %s", ErrNoAvailability, assigned[i].ServiceID)
			}
			rankTechnicians(techs)
		}

		tech, err := r.pickAvailable(ctx, techs, date, cursor, assigned[i].Duration)
		if err != nil {
			return nil, err
		}
		if tech == nil {
			r.logger.Info("requested slot conflicts",
				"service", assigned[i].ServiceID, "date", date, "time", cursor)
			alts, altErr := r.findAlternatives(ctx, firstTechs, st, date, start)
			if altErr != nil {
				return nil, altErr
			}
			span.SetAttributes(attribute.Int("booking.alternatives", len(alts)))
			return &ResolveResult{Conflict: true, Alternatives: alts}, nil
		}

		assigned[i].TechnicianID = tech.ID
		cursor, err = AddMinutes(cursor, assigned[i].Duration)
		if err != nil {
			return nil, err
		}
	}

	end, err := AddMinutes(start, st.TotalDuration)
	if err != nil {
		return nil, err
	}
	return &ResolveResult{Assigned: assigned, EndTime: end}, nil
}

// pickAvailable batch-checks every candidate in one round trip and
// returns the highest-ranked free one, or nil when the slot conflicts
// for all of them.
func (r *AvailabilityResolver) pickAvailable(ctx context.Context, ranked []Technician, date, start string, duration int) (*Technician, error) {
	ids := make([]string, len(ranked))
	for i, t := range ranked {
		ids[i] = t.ID
	}
	free, err := r.gw.BatchCheckAvailability(ctx, ids, date, start, duration)
	if err != nil {
		return nil, err
	}
	for i := range ranked {
		if free[ranked[i].ID] {
			return &ranked[i], nil
		}
	}
	return nil, nil
}

// findAlternatives scans business hours in fixed steps for start times
// where at least one technician qualified for the first service is free.
// Windows that would push the chain past closing are skipped, as is the
// originally requested time. Deliberately validates only the first
// service of the chain; the full chain is re-checked when the customer
// picks a slot.
func (r *AvailabilityResolver) findAlternatives(ctx context.Context, firstTechs []Technician, st *BookingState, date, requested string) ([]AlternativeSlot, error) {
	open, err := clockMinutes(r.hours.Open)
	if err != nil {
		return nil, err
	}
	closing, err := clockMinutes(r.hours.Close)
	if err != nil {
		return nil, err
	}
	requestedMin, err := clockMinutes(requested)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(firstTechs))
	for _, t := range firstTechs {
		names[t.ID] = t.FullName()
	}

	firstDuration := st.Services[0].Duration
	var alts []AlternativeSlot
	for m := open; m+st.TotalDuration <= closing && len(alts) < maxAlternatives; m += alternativeSlotStep {
		if m == requestedMin {
			continue
		}
		candidate := minutesClock(m)
		tech, err := r.pickAvailable(ctx, firstTechs, date, candidate, firstDuration)
		if err != nil {
			return nil, err
		}
		if tech == nil {
			continue
		}
		end, err := AddMinutes(candidate, st.TotalDuration)
		if err != nil {
			return nil, err
		}
		alts = append(alts, AlternativeSlot{
			Time:           candidate,
			TechnicianID:   tech.ID,
			TechnicianName: names[tech.ID],
			EndTime:        end,
		})
	}
	return alts, nil
}

// rankTechnicians orders candidates Senior-first, then by rating
// descending. Stable so backend ordering breaks remaining ties.
func rankTechnicians(techs []Technician) {
	sort.SliceStable(techs, func(i, j int) bool {
		si, sj := techs[i].SkillLevel == "Senior", techs[j].SkillLevel == "Senior"
		if si != sj {
			return si
		}
		return techs[i].Rating > techs[j].Rating
	})
}
