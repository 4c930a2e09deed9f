package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"clinic-booking/internal/domain"
	"clinic-booking/internal/repository"
	"clinic-booking/internal/repository/sqlite"
	"clinic-booking/internal/service"
)

func setupRepos(t *testing.T) (repository.UserRepository, repository.AppointmentRepository) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	appts := sqlite.NewAppointmentRepository(db)
	if err := users.Init(context.Background()); err != nil {
		t.Fatalf("init users: %v", err)
	}
	if err := appts.Init(context.Background()); err != nil {
		t.Fatalf("init appointments: %v", err)
	}
	return users, appts
}

func setupUserService(t *testing.T) service.UserService {
	t.Helper()
	users, _ := setupRepos(t)
	return service.NewUserService(users)
}

func TestRegister(t *testing.T) {
	svc := setupUserService(t)

	user, err := svc.Register(context.Background(), "alice", "secret", domain.RolePatient)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if user.Username != "alice" || user.Role != domain.RolePatient {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash != "" {
		t.Fatal("password hash leaked from Register")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := setupUserService(t)

	first, err := svc.Register(context.Background(), "alice", "secret", domain.RolePatient)
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "alice", "other", domain.RoleDoctor); !errors.Is(err, service.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	// first registration still valid
	if _, err := svc.GetByID(context.Background(), first.ID); err != nil {
		t.Fatalf("first user gone after duplicate attempt: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := setupUserService(t)

	tests := []struct {
		name     string
		username string
		password string
		role     domain.Role
	}{
		{"empty username", "", "secret", domain.RolePatient},
		{"blank username", "   ", "secret", domain.RolePatient},
		{"empty password", "alice", "", domain.RolePatient},
		{"unknown role", "alice", "secret", domain.Role("admin")},
		{"empty role", "alice", "secret", domain.Role("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.password, tt.role)
			var verr *service.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	svc := setupUserService(t)

	if _, err := svc.Register(context.Background(), "alice", "secret", domain.RolePatient); err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Authenticate(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected user %q", user.Username)
	}

	// wrong password and unknown user fail the same way
	if _, err := svc.Authenticate(context.Background(), "alice", "wrong"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody", "secret"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestListDoctors(t *testing.T) {
	svc := setupUserService(t)

	for _, u := range []struct {
		name string
		role domain.Role
	}{
		{"alice", domain.RolePatient},
		{"bob", domain.RoleDoctor},
		{"carol", domain.RoleDoctor},
	} {
		if _, err := svc.Register(context.Background(), u.name, "pw", u.role); err != nil {
			t.Fatalf("register %s: %v", u.name, err)
		}
	}

	doctors, err := svc.ListDoctors(context.Background())
	if err != nil {
		t.Fatalf("list doctors: %v", err)
	}
	if len(doctors) != 2 {
		t.Fatalf("expected 2 doctors, got %d", len(doctors))
	}
	for _, d := range doctors {
		if d.Role != domain.RoleDoctor {
			t.Fatalf("non-doctor in doctor list: %+v", d)
		}
		if d.PasswordHash != "" {
			t.Fatal("password hash leaked from ListDoctors")
		}
	}
}
