package booking

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicbook/internal/availability"
	"clinicbook/internal/database"
	"clinicbook/internal/errs"
	"clinicbook/internal/models"
)

// fakeLedger is an in-memory Ledger for service unit tests.
type fakeLedger struct {
	mu       sync.Mutex
	doctors  map[int64]*models.Doctor
	bookings map[int64]*models.Booking
	nextID   int64

	insertErrs []error // consumed first, one per InsertBooking call
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		doctors:  map[int64]*models.Doctor{},
		bookings: map[int64]*models.Booking{},
	}
}

func (f *fakeLedger) InsertBooking(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, existing := range f.bookings {
		if existing.BookingReference == b.BookingReference {
			return database.ErrReferenceTaken
		}
		if existing.DoctorID == b.DoctorID && existing.AppointmentDate == b.AppointmentDate &&
			existing.AppointmentTime == b.AppointmentTime && existing.OccupiesSlot() {
			return errs.Conflict(b.DoctorID, b.AppointmentDate, b.AppointmentTime)
		}
	}
	f.nextID++
	b.ID = f.nextID
	clone := *b
	f.bookings[b.ID] = &clone
	return nil
}

func (f *fakeLedger) SlotTaken(_ context.Context, doctorID int64, date, timeOfDay string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.DoctorID == doctorID && b.AppointmentDate == date && b.AppointmentTime == timeOfDay && b.OccupiesSlot() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) GetBooking(_ context.Context, id int64) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookings[id], nil
}

func (f *fakeLedger) UpdateBookingStatus(_ context.Context, id int64, status string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return false, nil
	}
	b.Status = status
	return true, nil
}

func (f *fakeLedger) UpdateBookingNotes(_ context.Context, id int64, notes string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return false, nil
	}
	b.Notes = notes
	return true, nil
}

func (f *fakeLedger) GetDoctor(_ context.Context, id int64) (*models.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doctors[id], nil
}

// fixedGrid satisfies SlotSource with a static slot grid.
type fixedGrid []string

func (g fixedGrid) SlotGrid(context.Context, int64, string) ([]string, error) {
	return g, nil
}

func newTestService(ledger Ledger, grid SlotSource) *Service {
	logger := zerolog.Nop()
	s := NewService(ledger, grid, nil, &logger)
	s.now = func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func validRequest() Request {
	return Request{
		PatientName:     "Alice Smith",
		PatientPhone:    "+1-555-0000",
		DoctorID:        1,
		AppointmentDate: "2026-09-07",
		AppointmentTime: "09:00",
	}
}

func ledgerWithDoctor() *fakeLedger {
	ledger := newFakeLedger()
	ledger.doctors[1] = &models.Doctor{ID: 1, Name: "Dr. Grey", Department: "Surgery", IsActive: true}
	return ledger
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(ledgerWithDoctor(), fixedGrid{"09:00", "09:30"})

	b, err := svc.CreateBooking(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, b.Status)
	assert.Len(t, b.BookingReference, 8)
	assert.NotZero(t, b.ID)
}

func TestCreateBookingValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"missing patient name", func(r *Request) { r.PatientName = "" }, "patientName"},
		{"missing phone", func(r *Request) { r.PatientPhone = "" }, "patientPhone"},
		{"missing doctor", func(r *Request) { r.DoctorID = 0 }, "doctorId"},
		{"missing date", func(r *Request) { r.AppointmentDate = "" }, "appointmentDate"},
		{"missing time", func(r *Request) { r.AppointmentTime = "" }, "appointmentTime"},
		{"malformed date", func(r *Request) { r.AppointmentDate = "07.09.2026" }, "appointmentDate"},
		{"past date", func(r *Request) { r.AppointmentDate = "2026-08-31" }, "appointmentDate"},
		{"time off the slot grid", func(r *Request) { r.AppointmentTime = "09:15" }, "appointmentTime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(ledgerWithDoctor(), fixedGrid{"09:00", "09:30"})
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.CreateBooking(ctx, req)
			var verr *errs.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCreateBookingTodayIsAllowed(t *testing.T) {
	svc := newTestService(ledgerWithDoctor(), fixedGrid{"09:00"})
	req := validRequest()
	req.AppointmentDate = "2026-09-01"

	_, err := svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
}

func TestCreateBookingUnknownDoctor(t *testing.T) {
	svc := newTestService(newFakeLedger(), fixedGrid{"09:00"})

	_, err := svc.CreateBooking(context.Background(), validRequest())
	assert.True(t, errs.IsNotFound(err), "expected not found, got %v", err)
}

func TestCreateBookingInactiveDoctor(t *testing.T) {
	ledger := newFakeLedger()
	ledger.doctors[1] = &models.Doctor{ID: 1, Name: "Dr. Grey", IsActive: false}
	svc := newTestService(ledger, fixedGrid{"09:00"})

	_, err := svc.CreateBooking(context.Background(), validRequest())
	assert.True(t, errs.IsValidation(err), "expected validation error, got %v", err)
}

func TestCreateBookingConflictFastPath(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(ledgerWithDoctor(), fixedGrid{"09:00", "09:30"})

	_, err := svc.CreateBooking(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.CreateBooking(ctx, validRequest())
	assert.True(t, errs.IsConflict(err), "expected conflict, got %v", err)
}

func TestCreateBookingReferenceRetry(t *testing.T) {
	ledger := ledgerWithDoctor()
	ledger.insertErrs = []error{database.ErrReferenceTaken, database.ErrReferenceTaken}
	svc := newTestService(ledger, fixedGrid{"09:00"})

	refs := []string{"AAAAAAAA", "AAAAAAAA", "BBBBBBBB"}
	svc.newReference = func() string {
		r := refs[0]
		refs = refs[1:]
		return r
	}

	b, err := svc.CreateBooking(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBBB", b.BookingReference)
}

func TestCreateBookingReferenceExhaustion(t *testing.T) {
	ledger := ledgerWithDoctor()
	for i := 0; i < maxReferenceAttempts; i++ {
		ledger.insertErrs = append(ledger.insertErrs, database.ErrReferenceTaken)
	}
	svc := newTestService(ledger, fixedGrid{"09:00"})

	_, err := svc.CreateBooking(context.Background(), validRequest())
	var serr *errs.StoreError
	assert.ErrorAs(t, err, &serr)
}

func TestUpdateBooking(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, int64) {
		t.Helper()
		svc := newTestService(ledgerWithDoctor(), fixedGrid{"09:00", "09:30"})
		b, err := svc.CreateBooking(ctx, validRequest())
		require.NoError(t, err)
		return svc, b.ID
	}

	t.Run("confirmed to cancelled", func(t *testing.T) {
		svc, id := setup(t)
		require.NoError(t, svc.UpdateBooking(ctx, id, Update{Status: models.StatusCancelled}))

		b, err := svc.ledger.GetBooking(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, b.Status)
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		svc, id := setup(t)
		require.NoError(t, svc.UpdateBooking(ctx, id, Update{Status: models.StatusCancelled}))

		err := svc.UpdateBooking(ctx, id, Update{Status: models.StatusConfirmed})
		assert.True(t, errs.IsValidation(err), "expected validation error, got %v", err)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc, id := setup(t)
		err := svc.UpdateBooking(ctx, id, Update{Status: "rescheduled"})
		assert.True(t, errs.IsValidation(err))
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		svc, id := setup(t)
		require.NoError(t, svc.UpdateBooking(ctx, id, Update{Status: models.StatusConfirmed}))
	})

	t.Run("notes only", func(t *testing.T) {
		svc, id := setup(t)
		notes := "patient requested a reminder call"
		require.NoError(t, svc.UpdateBooking(ctx, id, Update{Notes: &notes}))

		b, err := svc.ledger.GetBooking(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, notes, b.Notes)
		assert.Equal(t, models.StatusConfirmed, b.Status)
	})

	t.Run("unknown booking", func(t *testing.T) {
		svc, _ := setup(t)
		err := svc.UpdateBooking(ctx, 9999, Update{Status: models.StatusCancelled})
		assert.True(t, errs.IsNotFound(err))
	})
}

// TestCreateBookingConcurrent races many identical requests against a real
// ledger. Exactly one must win; the rest must come back as conflicts.
func TestCreateBookingConcurrent(t *testing.T) {
	ctx := context.Background()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "race.db"))
	require.NoError(t, err)
	defer db.Close()

	doctorID, err := db.CreateDoctor(ctx, "Dr. Grey", "Surgery", "")
	require.NoError(t, err)
	require.NoError(t, db.ReplaceRules(ctx, doctorID, []database.RuleInput{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", SlotDuration: 30},
	}))

	svc := newTestService(db, availability.NewResolver(db))

	const workers = 10
	req := validRequest()
	req.DoctorID = doctorID

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := req
			r.PatientName = fmt.Sprintf("Patient %d", i)
			_, err := svc.CreateBooking(ctx, r)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var succeeded, conflicted int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errs.IsConflict(err):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicted)
}
