package service_test

import (
	"context"
	"errors"
	"testing"

	"clinic-booking/internal/domain"
	"clinic-booking/internal/service"
)

type fixture struct {
	users service.UserService
	appts service.AppointmentService
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	userRepo, apptRepo := setupRepos(t)
	return &fixture{
		users: service.NewUserService(userRepo),
		appts: service.NewAppointmentService(apptRepo, userRepo),
	}
}

func (f *fixture) register(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), username, "pw", role)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func (f *fixture) book(t *testing.T, owner *domain.User, doctor, date, timeOfDay string) *domain.Appointment {
	t.Helper()
	appt, err := f.appts.Book(context.Background(), owner, doctor, date, timeOfDay)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return appt
}

func TestBook(t *testing.T) {
	f := setupFixture(t)
	alice := f.register(t, "alice", domain.RolePatient)
	f.register(t, "bob", domain.RoleDoctor)

	appt := f.book(t, alice, "bob", "2024-06-01", "10:00")
	if appt.PatientName != "alice" || appt.DoctorName != "bob" {
		t.Fatalf("denormalized names wrong: %+v", appt)
	}
	if appt.OwnerID != alice.ID {
		t.Fatalf("owner id %d, want %d", appt.OwnerID, alice.ID)
	}
	if appt.ID == 0 {
		t.Fatal("expected assigned id")
	}
}

func TestBookDoctorNotFound(t *testing.T) {
	f := setupFixture(t)
	alice := f.register(t, "alice", domain.RolePatient)
	f.register(t, "carol", domain.RolePatient)

	tests := []struct {
		name   string
		doctor string
	}{
		{"nonexistent username", "ghost"},
		{"username is a patient", "carol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.appts.Book(context.Background(), alice, tt.doctor, "2024-06-01", "10:00")
			if !errors.Is(err, service.ErrDoctorNotFound) {
				t.Fatalf("expected ErrDoctorNotFound, got %v", err)
			}
		})
	}

	// no appointment was created
	appts, err := f.appts.ListForPatient(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(appts) != 0 {
		t.Fatalf("expected no appointments, got %d", len(appts))
	}
}

func TestBookValidation(t *testing.T) {
	f := setupFixture(t)
	alice := f.register(t, "alice", domain.RolePatient)
	f.register(t, "bob", domain.RoleDoctor)

	tests := []struct {
		name, doctor, date, timeOfDay string
	}{
		{"missing doctor", "", "2024-06-01", "10:00"},
		{"missing date", "bob", "", "10:00"},
		{"missing time", "bob", "2024-06-01", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.appts.Book(context.Background(), alice, tt.doctor, tt.date, tt.timeOfDay)
			var verr *service.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestListScoping(t *testing.T) {
	f := setupFixture(t)
	alice := f.register(t, "alice", domain.RolePatient)
	carol := f.register(t, "carol", domain.RolePatient)
	bob := f.register(t, "bob", domain.RoleDoctor)
	_ = f.register(t, "dave", domain.RoleDoctor)

	f.book(t, alice, "bob", "2024-06-01", "10:00")
	f.book(t, alice, "dave", "2024-06-02", "11:00")
	f.book(t, carol, "bob", "2024-06-03", "12:00")

	// patients see only their own bookings
	aliceAppts, err := f.appts.ListForUser(context.Background(), alice)
	if err != nil {
		t.Fatalf("list for alice: %v", err)
	}
	if len(aliceAppts) != 2 {
		t.Fatalf("alice: expected 2 appointments, got %d", len(aliceAppts))
	}
	for _, a := range aliceAppts {
		if a.OwnerID != alice.ID {
			t.Fatalf("foreign appointment in alice's list: %+v", a)
		}
	}

	// doctors see only appointments assigned to them by name
	bobAppts, err := f.appts.ListForUser(context.Background(), bob)
	if err != nil {
		t.Fatalf("list for bob: %v", err)
	}
	if len(bobAppts) != 2 {
		t.Fatalf("bob: expected 2 appointments, got %d", len(bobAppts))
	}
	for _, a := range bobAppts {
		if a.DoctorName != "bob" {
			t.Fatalf("foreign appointment in bob's list: %+v", a)
		}
	}
}

func TestUpdateAuthorization(t *testing.T) {
	f := setupFixture(t)
	alice := f.register(t, "alice", domain.RolePatient)
	carol := f.register(t, "carol", domain.RolePatient)
	bob := f.register(t, "bob", domain.RoleDoctor)
	appt := f.book(t, alice, "bob", "2024-06-01", "10:00")

	tests := []struct {
		name      string
		requester *domain.User
	}{
		{"another patient", carol},
		{"assigned doctor", bob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.appts.Update(context.Background(), appt.ID, "2024-07-01", "09:00", tt.requester)
			if !errors.Is(err, service.ErrNotAuthorized) {
				t.Fatalf("expected ErrNotAuthorized, got %v", err)
			}
		})
	}

	// target unchanged
	got, err := f.appts.Get(context.Background(), appt.ID, alice)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Date != "2024-06-01" || got.Time != "10:00" {
		t.Fatalf("appointment changed by unauthorized request: %+v", got)
	}

	// owner succeeds
	updated, err := f.appts.Update(context.Background(), appt.ID, "2024-06-01", "11:00", alice)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Time != "11:00" {
		t.Fatalf("time not updated: %+v", updated)
	}
}

func TestUpdateNotFound(t *testing.T) {
	f := setupFixture(t)
	alice := f.register(t, "alice", domain.RolePatient)

	_, err := f.appts.Update(context.Background(), 999, "2024-07-01", "09:00", alice)
	if !errors.Is(err, service.ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestDeleteAuthorization(t *testing.T) {
	f := setupFixture(t)
	alice := f.register(t, "alice", domain.RolePatient)
	carol := f.register(t, "carol", domain.RolePatient)
	bob := f.register(t, "bob", domain.RoleDoctor)
	appt := f.book(t, alice, "bob", "2024-06-01", "10:00")

	if err := f.appts.Delete(context.Background(), appt.ID, carol); !errors.Is(err, service.ErrNotAuthorized) {
		t.Fatalf("another patient: expected ErrNotAuthorized, got %v", err)
	}
	if err := f.appts.Delete(context.Background(), appt.ID, bob); !errors.Is(err, service.ErrNotAuthorized) {
		t.Fatalf("doctor: expected ErrNotAuthorized, got %v", err)
	}

	if err := f.appts.Delete(context.Background(), appt.ID, alice); err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	appts, err := f.appts.ListForPatient(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(appts) != 0 {
		t.Fatalf("expected empty list after delete, got %d", len(appts))
	}

	if err := f.appts.Delete(context.Background(), appt.ID, alice); !errors.Is(err, service.ErrAppointmentNotFound) {
		t.Fatalf("second delete: expected ErrAppointmentNotFound, got %v", err)
	}
}
