package booking

import "context"

// Customer is a backend customer record.
type Customer struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
}

// NewCustomer is the payload for creating a customer.
type NewCustomer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// BackendBooking is the committed booking shape the backend persists.
type BackendBooking struct {
	CustomerID      string              `json:"customerId"`
	Services        []ServiceAssignment `json:"services"`
	AppointmentDate string              `json:"appointmentDate"`
	StartTime       string              `json:"startTime"`
	EndTime         string              `json:"endTime"`
	Status          BookingStatus       `json:"status"`
	TotalDuration   int                 `json:"totalDuration"`
	TotalPrice      float64             `json:"totalPrice"`
	PaymentStatus   string              `json:"paymentStatus"`
	Notes           string              `json:"notes,omitempty"`
}

// CreatedBooking is the backend's acknowledgement of a created booking.
type CreatedBooking struct {
	ID string `json:"_id"`
}

// Gateway is the backend service surface the scheduling engine depends
// on. The production implementation lives in internal/backend; tests
// substitute fakes.
type Gateway interface {
	// Services returns the full service catalog.
	Services(ctx context.Context) ([]Service, error)

	// ServiceByName looks up one catalog entry; nil when absent.
	ServiceByName(ctx context.Context, name string) (*Service, error)

	// AvailableTechnicians returns all active technicians.
	AvailableTechnicians(ctx context.Context) ([]Technician, error)

	// TechniciansForService returns the technicians qualified for a service.
	TechniciansForService(ctx context.Context, serviceID string) ([]Technician, error)

	// BatchCheckAvailability asks, in one round trip, whether each listed
	// technician is free at startTime on date for duration minutes.
	BatchCheckAvailability(ctx context.Context, technicianIDs []string, date, startTime string, duration int) (map[string]bool, error)

	// CustomerByPhone looks up a customer; nil when absent.
	CustomerByPhone(ctx context.Context, phone string) (*Customer, error)

	// CreateCustomer registers a new customer.
	CreateCustomer(ctx context.Context, c NewCustomer) (*Customer, error)

	// CreateBooking persists a completed booking.
	CreateBooking(ctx context.Context, b BackendBooking) (*CreatedBooking, error)
}

// ToBackendBooking projects the session state onto the backend shape.
func (s *BookingState) ToBackendBooking() BackendBooking {
	return BackendBooking{
		CustomerID:      s.CustomerID,
		Services:        s.Services,
		AppointmentDate: s.AppointmentDate,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		Status:          s.Status,
		TotalDuration:   s.TotalDuration,
		TotalPrice:      s.TotalPrice,
		PaymentStatus:   s.PaymentStatus,
		Notes:           s.Notes,
	}
}
