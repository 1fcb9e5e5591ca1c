package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCatalog = []Service{
	{ID: "svc-mani", Name: "Basic Manicure", DurationMinutes: 45, Price: 25},
	{ID: "svc-pedi", Name: "Spa Pedicure", DurationMinutes: 80, Price: 55},
	{ID: "svc-gel", Name: "Gel Polish", DurationMinutes: 30, Price: 35},
}

func TestApplyFieldUpdates(t *testing.T) {
	st := NewBookingState()

	changed := st.ApplyFieldUpdates(FieldUpdates{
		CustomerName:      "Jane Doe",
		CustomerPhone:     "5551234567",
		ServicesRequested: "Spa Pedicure, Basic Manicure",
		DateRequested:     "Friday",
		TimeRequested:     "3pm",
	})
	assert.True(t, changed.Date)
	assert.True(t, changed.Time)
	assert.True(t, changed.Services)
	assert.Equal(t, "Jane Doe", st.CustomerName)

	// Re-sending identical values is not a change.
	changed = st.ApplyFieldUpdates(FieldUpdates{
		DateRequested: "Friday",
		TimeRequested: "3pm",
	})
	assert.False(t, changed.Date)
	assert.False(t, changed.Time)

	// Empty strings never clobber existing values.
	changed = st.ApplyFieldUpdates(FieldUpdates{CustomerName: ""})
	assert.Equal(t, "Jane Doe", st.CustomerName)
	assert.False(t, changed.Date)

	// A genuinely new date counts.
	changed = st.ApplyFieldUpdates(FieldUpdates{DateRequested: "Saturday"})
	assert.True(t, changed.Date)
	assert.Equal(t, "Saturday", st.DateRequested)

	// Identity fields are last-writer-wins.
	st.ApplyFieldUpdates(FieldUpdates{CustomerName: "Janet Doe"})
	assert.Equal(t, "Janet Doe", st.CustomerName)
}

func TestRequestedServiceNames(t *testing.T) {
	st := NewBookingState()
	assert.Nil(t, st.RequestedServiceNames())

	st.ServicesRequested = "Spa Pedicure, Basic Manicure"
	assert.Equal(t, []string{"Spa Pedicure", "Basic Manicure"}, st.RequestedServiceNames())

	st.ServicesRequested = " Gel Polish ,, "
	assert.Equal(t, []string{"Gel Polish"}, st.RequestedServiceNames())
}

func TestPopulateServices(t *testing.T) {
	st := NewBookingState()
	st.AvailableServices = testCatalog
	st.ServicesRequested = "Spa Pedicure, Basic Manicure"

	st.PopulateServices()
	require.Len(t, st.Services, 2)
	assert.Equal(t, "svc-pedi", st.Services[0].ServiceID)
	assert.Equal(t, "svc-mani", st.Services[1].ServiceID)
	assert.Equal(t, 125, st.TotalDuration)
	assert.Equal(t, 80.0, st.TotalPrice)
}

func TestPopulateServicesSubstringMatch(t *testing.T) {
	st := NewBookingState()
	st.AvailableServices = testCatalog
	st.ServicesRequested = "manicure"

	st.PopulateServices()
	require.Len(t, st.Services, 1)
	assert.Equal(t, "svc-mani", st.Services[0].ServiceID)
}

func TestPopulateServicesPreservesAssignments(t *testing.T) {
	st := NewBookingState()
	st.AvailableServices = testCatalog
	st.ServicesRequested = "Spa Pedicure"
	st.PopulateServices()
	require.Len(t, st.Services, 1)

	st.Services[0].TechnicianID = "tech-1"

	// Same request again: the assignment must survive.
	st.PopulateServices()
	require.Len(t, st.Services, 1)
	assert.Equal(t, "tech-1", st.Services[0].TechnicianID)

	// A changed request rebuilds and drops stale assignments.
	st.ServicesRequested = "Gel Polish"
	st.PopulateServices()
	require.Len(t, st.Services, 1)
	assert.Equal(t, "svc-gel", st.Services[0].ServiceID)
	assert.Empty(t, st.Services[0].TechnicianID)
}

func TestPopulateServicesNoCatalog(t *testing.T) {
	st := NewBookingState()
	st.ServicesRequested = "Spa Pedicure"
	st.PopulateServices()
	assert.Empty(t, st.Services)
}

func TestMissingForBooking(t *testing.T) {
	st := NewBookingState()
	missing := st.MissingForBooking()
	assert.Contains(t, missing, "customer name")
	assert.Contains(t, missing, "customer phone")
	assert.Contains(t, missing, "services")
	assert.Contains(t, missing, "date/time confirmation")
	assert.False(t, st.ReadyForBooking())

	st.CustomerName = "Jane Doe"
	st.CustomerPhone = "555-123-4567"
	st.AppointmentDate = "2025-11-21"
	st.StartTime = "15:00"
	st.DateTimeConfirmation = ConfirmationConfirmed
	st.Services = []ServiceAssignment{{ServiceID: "svc-pedi", Duration: 80, Price: 55}}

	missing = st.MissingForBooking()
	assert.Equal(t, []string{"technician assignment"}, missing)

	st.Services[0].TechnicianID = "tech-1"
	assert.True(t, st.ReadyForBooking())
}

func TestRecomputeTotals(t *testing.T) {
	st := NewBookingState()
	st.Services = []ServiceAssignment{
		{ServiceID: "a", Duration: 80, Price: 55},
		{ServiceID: "b", Duration: 45, Price: 25},
	}
	st.RecomputeTotals()
	assert.Equal(t, 125, st.TotalDuration)
	assert.Equal(t, 80.0, st.TotalPrice)

	st.Services = nil
	st.RecomputeTotals()
	assert.Zero(t, st.TotalDuration)
	assert.Zero(t, st.TotalPrice)
}
