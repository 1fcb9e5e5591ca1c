// Package booking implements the scheduling engine for conversational
// salon appointments: the typed session state, natural-language date/time
// resolution, the confirmation handshake for ambiguous input, chained
// multi-service availability resolution, and the action dispatch table.
package booking

import "strings"

// BookingStatus mirrors the backend booking lifecycle.
type BookingStatus string

const (
	StatusScheduled  BookingStatus = "scheduled"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
	StatusNoShow     BookingStatus = "no_show"
)

// ConfirmationStatus tracks whether the appointment date/time has been
// resolved to an unambiguous value or explicitly confirmed by the customer.
type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "pending"
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
)

// Service is a catalog entry from the backend.
type Service struct {
	ID              string  `json:"_id"`
	Name            string  `json:"name"`
	Category        string  `json:"category,omitempty"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	Description     string  `json:"description,omitempty"`
}

// Technician is a staff entry from the backend.
type Technician struct {
	ID          string   `json:"_id"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	EmployeeID  string   `json:"employeeId,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
	SkillLevel  string   `json:"skillLevel"`
	Rating      float64  `json:"rating"`
}

// FullName returns the technician's display name.
func (t Technician) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// ServiceAssignment pairs one requested service with the technician who
// will perform it. TechnicianID stays empty until availability resolution
// assigns one; a booking cannot be created while any assignment is empty.
type ServiceAssignment struct {
	ServiceID    string  `json:"serviceId"`
	TechnicianID string  `json:"technicianId,omitempty"`
	Duration     int     `json:"duration"`
	Price        float64 `json:"price"`
	Status       string  `json:"status"`
	Notes        string  `json:"notes,omitempty"`
}

// AlternativeSlot is a candidate start time, different from the requested
// one, that is free for at least the first service of the chain.
type AlternativeSlot struct {
	Time           string `json:"time"`
	TechnicianID   string `json:"technicianId"`
	TechnicianName string `json:"technician"`
	EndTime        string `json:"endTime"`
}

// PendingConfirmation holds a not-yet-committed interpretation of an
// ambiguous date/time, awaiting explicit customer approval. A session has
// at most one; a newer date/time supersedes it rather than stacking.
type PendingConfirmation struct {
	OriginalDate  string `json:"originalDate"`
	OriginalTime  string `json:"originalTime"`
	ParsedDate    string `json:"parsedDate"`
	ParsedTime    string `json:"parsedTime"`
	FormattedDate string `json:"formattedDate"`
	FormattedTime string `json:"formattedTime"`
	Services      string `json:"services,omitempty"`
}

// BookingState is the per-session scheduling state. The conversational
// fields hold raw customer phrasing overwritten by the extraction layer;
// the resolved fields align with the backend booking shape and are only
// written by the scheduling engine itself.
type BookingState struct {
	CustomerName         string `json:"customerName"`
	CustomerPhone        string `json:"customerPhone"`
	ServicesRequested    string `json:"servicesRequested"`
	DateRequested        string `json:"dateRequested"`
	TimeRequested        string `json:"timeRequested"`
	TechnicianPreference string `json:"technicianPreference,omitempty"`

	CustomerID      string              `json:"customerId,omitempty"`
	Services        []ServiceAssignment `json:"services"`
	AppointmentDate string              `json:"appointmentDate,omitempty"`
	StartTime       string              `json:"startTime,omitempty"`
	EndTime         string              `json:"endTime,omitempty"`
	Status          BookingStatus       `json:"status"`
	TotalDuration   int                 `json:"totalDuration"`
	TotalPrice      float64             `json:"totalPrice"`
	PaymentStatus   string              `json:"paymentStatus"`
	Notes           string              `json:"notes,omitempty"`

	DateTimeConfirmation ConfirmationStatus `json:"dateTimeConfirmationStatus"`

	AvailableServices    []Service         `json:"availableServices,omitempty"`
	AvailableTechnicians []Technician      `json:"availableTechnicians,omitempty"`
	AlternativeTimes     []AlternativeSlot `json:"alternativeTimes,omitempty"`
}

// NewBookingState returns a state with lifecycle defaults applied.
func NewBookingState() *BookingState {
	return &BookingState{
		Status:               StatusScheduled,
		PaymentStatus:        "pending",
		DateTimeConfirmation: ConfirmationPending,
	}
}

// FieldUpdates carries one turn's structured extraction output. Empty
// strings mean "nothing extracted for this field".
type FieldUpdates struct {
	CustomerName         string `json:"customer_name"`
	CustomerPhone        string `json:"customer_phone"`
	ServicesRequested    string `json:"services_requested"`
	DateRequested        string `json:"date_requested"`
	TimeRequested        string `json:"time_requested"`
	TechnicianPreference string `json:"technician_preference"`
}

// FieldChanges records which scheduling-relevant fields a turn modified.
type FieldChanges struct {
	Date     bool
	Time     bool
	Services bool
}

// ApplyFieldUpdates merges one turn's extraction output into the state.
// Customer identity fields are last-writer-wins; every other field updates
// only when the value actually changed, so a repeated "Thursday at 3" does
// not re-trigger the confirmation handshake.
func (s *BookingState) ApplyFieldUpdates(u FieldUpdates) FieldChanges {
	var changed FieldChanges

	if v := strings.TrimSpace(u.CustomerName); v != "" {
		s.CustomerName = v
	}
	if v := strings.TrimSpace(u.CustomerPhone); v != "" {
		s.CustomerPhone = v
	}
	if v := strings.TrimSpace(u.ServicesRequested); v != "" && v != s.ServicesRequested {
		s.ServicesRequested = v
		changed.Services = true
	}
	if v := strings.TrimSpace(u.DateRequested); v != "" && v != s.DateRequested {
		s.DateRequested = v
		changed.Date = true
	}
	if v := strings.TrimSpace(u.TimeRequested); v != "" && v != s.TimeRequested {
		s.TimeRequested = v
		changed.Time = true
	}
	if v := strings.TrimSpace(u.TechnicianPreference); v != "" && v != s.TechnicianPreference {
		s.TechnicianPreference = v
	}
	return changed
}

// RecomputeTotals resets totalDuration/totalPrice to the sums over the
// services list. Called after every mutation of Services so the totals
// never drift.
func (s *BookingState) RecomputeTotals() {
	s.TotalDuration = 0
	s.TotalPrice = 0
	for _, svc := range s.Services {
		s.TotalDuration += svc.Duration
		s.TotalPrice += svc.Price
	}
}

// RequestedServiceNames splits the comma-separated servicesRequested field.
func (s *BookingState) RequestedServiceNames() []string {
	if strings.TrimSpace(s.ServicesRequested) == "" {
		return nil
	}
	parts := strings.Split(s.ServicesRequested, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// PopulateServices rebuilds the services list from servicesRequested using
// the availableServices cache. A no-op when either input is missing or
// when the current list already matches the requested set, preserving any
// technician assignments made earlier in the conversation.
func (s *BookingState) PopulateServices() {
	requested := s.RequestedServiceNames()
	if len(requested) == 0 || len(s.AvailableServices) == 0 {
		return
	}

	if len(s.Services) == len(requested) && s.servicesMatch(requested) {
		return
	}

	assignments := make([]ServiceAssignment, 0, len(requested))
	for _, name := range requested {
		svc := s.findService(name)
		if svc == nil {
			continue
		}
		assignments = append(assignments, ServiceAssignment{
			ServiceID: svc.ID,
			Duration:  svc.DurationMinutes,
			Price:     svc.Price,
			Status:    string(StatusScheduled),
		})
	}
	if len(assignments) == 0 {
		return
	}
	s.Services = assignments
	s.RecomputeTotals()
}

// servicesMatch reports whether the current assignments cover exactly the
// requested service names.
func (s *BookingState) servicesMatch(requested []string) bool {
	byID := make(map[string]string, len(s.AvailableServices))
	for _, svc := range s.AvailableServices {
		byID[svc.ID] = strings.ToLower(svc.Name)
	}
	current := make(map[string]struct{}, len(s.Services))
	for _, a := range s.Services {
		current[byID[a.ServiceID]] = struct{}{}
	}
	for _, name := range requested {
		svc := s.findService(name)
		if svc == nil {
			return false
		}
		if _, ok := current[strings.ToLower(svc.Name)]; !ok {
			return false
		}
	}
	return true
}

// findService matches a requested name against the catalog cache, exact
// first, then substring in either direction to tolerate partial phrasing
// like "manicure" for "Basic Manicure".
func (s *BookingState) findService(name string) *Service {
	want := strings.ToLower(strings.TrimSpace(name))
	for i := range s.AvailableServices {
		if strings.ToLower(s.AvailableServices[i].Name) == want {
			return &s.AvailableServices[i]
		}
	}
	for i := range s.AvailableServices {
		have := strings.ToLower(s.AvailableServices[i].Name)
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return &s.AvailableServices[i]
		}
	}
	return nil
}

// MissingForBooking lists the prerequisites still absent before a booking
// can be created.
func (s *BookingState) MissingForBooking() []string {
	var missing []string
	if s.CustomerName == "" {
		missing = append(missing, "customer name")
	}
	if s.CustomerPhone == "" {
		missing = append(missing, "customer phone")
	}
	if s.AppointmentDate == "" {
		missing = append(missing, "appointment date")
	}
	if s.StartTime == "" {
		missing = append(missing, "start time")
	}
	if len(s.Services) == 0 {
		missing = append(missing, "services")
	}
	if s.DateTimeConfirmation != ConfirmationConfirmed {
		missing = append(missing, "date/time confirmation")
	}
	unassigned := 0
	for _, svc := range s.Services {
		if svc.TechnicianID == "" {
			unassigned++
		}
	}
	if unassigned > 0 {
		missing = append(missing, "technician assignment")
	}
	return missing
}

// ReadyForBooking reports whether CreateBooking's preconditions hold.
func (s *BookingState) ReadyForBooking() bool {
	return len(s.MissingForBooking()) == 0
}

// SessionState is the scheduling engine's view of one conversation
// session: the booking under construction plus the at-most-one pending
// date/time confirmation.
type SessionState struct {
	Booking              *BookingState        `json:"bookingState"`
	Pending              *PendingConfirmation `json:"pendingConfirmation,omitempty"`
	ConversationComplete bool                 `json:"conversationComplete"`
}
