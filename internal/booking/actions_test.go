package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(gw *fakeGateway) *Executor {
	resolver := NewAvailabilityResolver(gw, DefaultBusinessHours, nil)
	confirm := NewConfirmationEngine(testClock, nil)
	return NewExecutor(gw, resolver, confirm, nil)
}

// executorSession builds a session with identity, a confirmed Friday 3 PM
// slot, and a populated two-service chain.
func executorSession() *SessionState {
	st := confirmedState()
	st.CustomerName = "Jane Doe"
	st.CustomerPhone = "5551234567"
	st.ServicesRequested = "Spa Pedicure, Basic Manicure"
	return &SessionState{Booking: st}
}

func executorGateway() *fakeGateway {
	gw := newFakeGateway()
	gw.services = testCatalog
	gw.techsByService["svc-pedi"] = []Technician{techSenior}
	gw.techsByService["svc-mani"] = []Technician{techJunior}
	gw.allTechs = []Technician{techSenior, techJunior, techMid}
	return gw
}

func TestExecuteUnknownAction(t *testing.T) {
	gw := executorGateway()
	e := newTestExecutor(gw)
	sess := executorSession()

	results := e.Execute(context.Background(), sess, []string{"send_rocket", "get_services"})
	require.Len(t, results, 2)
	assert.Equal(t, "unknown_action: send_rocket", results[0])
	assert.Equal(t, ResultServicesRetrieved, results[1])
}

func TestCheckAvailabilitySuccess(t *testing.T) {
	gw := executorGateway()
	e := newTestExecutor(gw)
	sess := executorSession()
	sess.Booking.DateRequested = "Friday"
	sess.Booking.TimeRequested = "3pm"

	results := e.Execute(context.Background(), sess, []string{string(ActionCheckAvailability)})
	require.Equal(t, []string{ResultAvailabilityChecked}, results)

	st := sess.Booking
	assert.Equal(t, "tech-senior", st.Services[0].TechnicianID)
	assert.Equal(t, "tech-junior", st.Services[1].TechnicianID)
	assert.Equal(t, "17:05", st.EndTime)
	assert.Empty(t, st.AlternativeTimes)
}

func TestCheckAvailabilityConflict(t *testing.T) {
	gw := executorGateway()
	gw.markBusy("tech-senior", "2025-11-21", "15:00")
	e := newTestExecutor(gw)
	sess := executorSession()

	results := e.Execute(context.Background(), sess, []string{string(ActionCheckAvailability)})
	require.Equal(t, []string{ResultConflictWithOptions}, results)
	assert.NotEmpty(t, sess.Booking.AlternativeTimes)
	// Nothing assigned on conflict.
	assert.Empty(t, sess.Booking.Services[0].TechnicianID)
	assert.Empty(t, sess.Booking.EndTime)
}

func TestCheckAvailabilityPreconditions(t *testing.T) {
	gw := executorGateway()
	e := newTestExecutor(gw)
	ctx := context.Background()

	t.Run("no services", func(t *testing.T) {
		sess := executorSession()
		sess.Booking.Services = nil
		results := e.Execute(ctx, sess, []string{string(ActionCheckAvailability)})
		assert.Equal(t, []string{ResultAvailabilityChecked + ": no services"}, results)
	})

	t.Run("missing date and time", func(t *testing.T) {
		sess := executorSession()
		sess.Booking.DateRequested = ""
		sess.Booking.TimeRequested = ""
		results := e.Execute(ctx, sess, []string{string(ActionCheckAvailability)})
		assert.Equal(t, []string{ResultAvailabilityChecked + ": missing date, time"}, results)
	})

	t.Run("not confirmed", func(t *testing.T) {
		sess := executorSession()
		sess.Booking.DateRequested = "Friday"
		sess.Booking.TimeRequested = "3"
		sess.Booking.DateTimeConfirmation = ConfirmationPending
		results := e.Execute(ctx, sess, []string{string(ActionCheckAvailability)})
		assert.Equal(t, []string{ResultAvailabilityChecked + ": date/time not confirmed"}, results)
	})
}

func TestCheckAvailabilityBackendDown(t *testing.T) {
	gw := executorGateway()
	gw.failWith = ErrBackendUnavailable
	e := newTestExecutor(gw)
	sess := executorSession()

	results := e.Execute(context.Background(), sess, []string{string(ActionCheckAvailability)})
	assert.Equal(t, []string{ResultBackendUnavailable}, results)
}

func TestConfirmDateTimeAction(t *testing.T) {
	gw := executorGateway()
	e := newTestExecutor(gw)
	sess := executorSession()
	sess.Booking.AppointmentDate = ""
	sess.Booking.StartTime = ""
	sess.Booking.DateTimeConfirmation = ConfirmationPending
	sess.Pending = &PendingConfirmation{ParsedDate: "2025-11-21", ParsedTime: "15:00"}

	results := e.Execute(context.Background(), sess, []string{string(ActionConfirmDateTime)})
	assert.Equal(t, []string{ResultDateTimeConfirmed}, results)
	assert.Equal(t, "2025-11-21", sess.Booking.AppointmentDate)
	assert.Equal(t, "15:00", sess.Booking.StartTime)

	// Re-running after the pending record was consumed.
	results = e.Execute(context.Background(), sess, []string{string(ActionConfirmDateTime)})
	assert.Equal(t, []string{ResultNoPending}, results)
}

func TestGetServicesRefreshesAndPopulates(t *testing.T) {
	gw := executorGateway()
	e := newTestExecutor(gw)
	sess := &SessionState{Booking: NewBookingState()}
	sess.Booking.ServicesRequested = "Spa Pedicure"

	results := e.Execute(context.Background(), sess, []string{string(ActionGetServices)})
	assert.Equal(t, []string{ResultServicesRetrieved}, results)
	assert.Len(t, sess.Booking.AvailableServices, len(testCatalog))
	require.Len(t, sess.Booking.Services, 1)
	assert.Equal(t, "svc-pedi", sess.Booking.Services[0].ServiceID)
}

func TestGetTechnicians(t *testing.T) {
	ctx := context.Background()

	t.Run("scoped to requested service", func(t *testing.T) {
		gw := executorGateway()
		e := newTestExecutor(gw)
		sess := executorSession()
		results := e.Execute(ctx, sess, []string{string(ActionGetTechnicians)})
		assert.Equal(t, []string{ResultTechniciansRetrieved}, results)
		require.Len(t, sess.Booking.AvailableTechnicians, 1)
		assert.Equal(t, "tech-senior", sess.Booking.AvailableTechnicians[0].ID)
	})

	t.Run("no service requested lists everyone", func(t *testing.T) {
		gw := executorGateway()
		e := newTestExecutor(gw)
		sess := &SessionState{Booking: NewBookingState()}
		results := e.Execute(ctx, sess, []string{string(ActionGetTechnicians)})
		assert.Equal(t, []string{ResultTechniciansRetrieved}, results)
		assert.Len(t, sess.Booking.AvailableTechnicians, 3)
	})

	t.Run("unknown service", func(t *testing.T) {
		gw := executorGateway()
		e := newTestExecutor(gw)
		sess := &SessionState{Booking: NewBookingState()}
		sess.Booking.ServicesRequested = "Hot Stone Massage"
		results := e.Execute(ctx, sess, []string{string(ActionGetTechnicians)})
		assert.Equal(t, []string{ResultTechniciansRetrieved + ": service not found"}, results)
	})
}

func TestCreateBookingNewCustomer(t *testing.T) {
	gw := executorGateway()
	e := newTestExecutor(gw)
	sess := executorSession()
	sess.Booking.Services[0].TechnicianID = "tech-senior"
	sess.Booking.Services[1].TechnicianID = "tech-junior"
	sess.Booking.EndTime = "17:05"

	results := e.Execute(context.Background(), sess, []string{string(ActionCreateBooking)})
	require.Equal(t, []string{ResultBookingCreated}, results)

	st := sess.Booking
	assert.Equal(t, StatusConfirmed, st.Status)
	assert.True(t, sess.ConversationComplete)
	assert.NotEmpty(t, st.CustomerID)

	// Customer created with the split name and normalized phone.
	created := gw.customers["555-123-4567"]
	require.NotNil(t, created)
	assert.Equal(t, "Jane", created.FirstName)
	assert.Equal(t, "Doe", created.LastName)

	require.Len(t, gw.created, 1)
	assert.Equal(t, st.CustomerID, gw.created[0].CustomerID)
	assert.Equal(t, 80.0, gw.created[0].TotalPrice)
	assert.Equal(t, 125, gw.created[0].TotalDuration)
}

func TestCreateBookingExistingCustomer(t *testing.T) {
	gw := executorGateway()
	gw.customers["555-123-4567"] = &Customer{ID: "cust-existing", Phone: "555-123-4567"}
	e := newTestExecutor(gw)
	sess := executorSession()
	sess.Booking.Services[0].TechnicianID = "tech-senior"
	sess.Booking.Services[1].TechnicianID = "tech-junior"

	results := e.Execute(context.Background(), sess, []string{string(ActionCreateBooking)})
	require.Equal(t, []string{ResultBookingCreated}, results)
	assert.Equal(t, "cust-existing", sess.Booking.CustomerID)
}

func TestCreateBookingNotReady(t *testing.T) {
	gw := executorGateway()
	e := newTestExecutor(gw)
	sess := executorSession() // technicians not yet assigned

	results := e.Execute(context.Background(), sess, []string{string(ActionCreateBooking)})
	require.Len(t, results, 1)
	assert.Contains(t, results[0], ResultBookingNotReady)
	assert.Contains(t, results[0], "technician assignment")
	assert.Empty(t, gw.created)
	assert.False(t, sess.ConversationComplete)
}

func TestCreateBookingBackendDown(t *testing.T) {
	gw := executorGateway()
	gw.failWith = ErrBackendUnavailable
	e := newTestExecutor(gw)
	sess := executorSession()
	sess.Booking.Services[0].TechnicianID = "tech-senior"
	sess.Booking.Services[1].TechnicianID = "tech-junior"

	results := e.Execute(context.Background(), sess, []string{string(ActionCreateBooking)})
	assert.Equal(t, []string{ResultBackendUnavailable}, results)
	assert.NotEqual(t, StatusConfirmed, sess.Booking.Status)
}

func TestCalculateCost(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches catalog when cold", func(t *testing.T) {
		gw := executorGateway()
		e := newTestExecutor(gw)
		sess := &SessionState{Booking: NewBookingState()}
		sess.Booking.ServicesRequested = "Spa Pedicure, Basic Manicure"
		results := e.Execute(ctx, sess, []string{string(ActionCalculateCost)})
		assert.Equal(t, []string{ResultCostCalculated}, results)
		assert.Equal(t, 80.0, sess.Booking.TotalPrice)
		assert.Equal(t, 125, sess.Booking.TotalDuration)
	})

	t.Run("no service specified", func(t *testing.T) {
		gw := executorGateway()
		e := newTestExecutor(gw)
		sess := &SessionState{Booking: NewBookingState()}
		results := e.Execute(ctx, sess, []string{string(ActionCalculateCost)})
		assert.Equal(t, []string{ResultCostCalculated + ": no service specified"}, results)
	})

	t.Run("service not found", func(t *testing.T) {
		gw := executorGateway()
		e := newTestExecutor(gw)
		sess := &SessionState{Booking: NewBookingState()}
		sess.Booking.ServicesRequested = "Hot Stone Massage"
		results := e.Execute(ctx, sess, []string{string(ActionCalculateCost)})
		assert.Equal(t, []string{ResultCostCalculated + ": service not found"}, results)
	})
}

func TestUpdateAndCancelBooking(t *testing.T) {
	gw := executorGateway()
	e := newTestExecutor(gw)
	ctx := context.Background()

	sess := executorSession()
	results := e.Execute(ctx, sess, []string{string(ActionUpdateBooking)})
	assert.Equal(t, []string{ResultBookingUpdateFailed}, results)

	sess.Booking.Status = StatusConfirmed
	results = e.Execute(ctx, sess, []string{string(ActionUpdateBooking)})
	assert.Equal(t, []string{ResultBookingUpdated}, results)

	results = e.Execute(ctx, sess, []string{string(ActionCancelBooking)})
	assert.Equal(t, []string{ResultBookingCancelled}, results)
	assert.Equal(t, StatusCancelled, sess.Booking.Status)
	assert.True(t, sess.ConversationComplete)
}
