package service

import (
	"context"
	"errors"
	"strings"

	"clinic-booking/internal/domain"
	"clinic-booking/internal/repository"
)

var (
	// ErrDoctorNotFound is returned when booking against a username that is not a doctor.
	ErrDoctorNotFound = errors.New("doctor does not exist")
	// ErrAppointmentNotFound is returned when the appointment id is absent.
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrNotAuthorized is returned when the requester is not the owning patient.
	ErrNotAuthorized = errors.New("not authorized")
)

// AppointmentService coordinates booking operations backed by repositories.
type AppointmentService interface {
	Book(ctx context.Context, owner *domain.User, doctorUsername, date, timeOfDay string) (*domain.Appointment, error)
	ListForPatient(ctx context.Context, ownerID int64) ([]domain.Appointment, error)
	ListForDoctor(ctx context.Context, doctorUsername string) ([]domain.Appointment, error)
	ListForUser(ctx context.Context, user *domain.User) ([]domain.Appointment, error)
	Get(ctx context.Context, id int64, requester *domain.User) (*domain.Appointment, error)
	Update(ctx context.Context, id int64, date, timeOfDay string, requester *domain.User) (*domain.Appointment, error)
	Delete(ctx context.Context, id int64, requester *domain.User) error
}

type appointmentService struct {
	appointments repository.AppointmentRepository
	users        repository.UserRepository
}

func NewAppointmentService(appointments repository.AppointmentRepository, users repository.UserRepository) AppointmentService {
	return &appointmentService{
		appointments: appointments,
		users:        users,
	}
}

func (s *appointmentService) Book(ctx context.Context, owner *domain.User, doctorUsername, date, timeOfDay string) (*domain.Appointment, error) {
	doctorUsername = strings.TrimSpace(doctorUsername)

	if doctorUsername == "" {
		return nil, &ValidationError{Field: "doctor_name", Reason: "is required"}
	}
	if date == "" {
		return nil, &ValidationError{Field: "date", Reason: "is required"}
	}
	if timeOfDay == "" {
		return nil, &ValidationError{Field: "time", Reason: "is required"}
	}

	doctor, err := s.users.GetByUsername(ctx, doctorUsername)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	if doctor.Role != domain.RoleDoctor {
		return nil, ErrDoctorNotFound
	}

	appt := &domain.Appointment{
		PatientName: owner.Username,
		DoctorName:  doctor.Username,
		Date:        date,
		Time:        timeOfDay,
		OwnerID:     owner.ID,
	}

	if _, err := s.appointments.Create(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *appointmentService) ListForPatient(ctx context.Context, ownerID int64) ([]domain.Appointment, error) {
	return s.appointments.ListByOwner(ctx, ownerID)
}

func (s *appointmentService) ListForDoctor(ctx context.Context, doctorUsername string) ([]domain.Appointment, error) {
	return s.appointments.ListByDoctorName(ctx, doctorUsername)
}

// ListForUser scopes the listing by role: doctors see appointments assigned to
// them by name, patients see the ones they own.
func (s *appointmentService) ListForUser(ctx context.Context, user *domain.User) ([]domain.Appointment, error) {
	if user.Role == domain.RoleDoctor {
		return s.ListForDoctor(ctx, user.Username)
	}
	return s.ListForPatient(ctx, user.ID)
}

// Get loads a single appointment under the same ownership rule as Update and
// Delete, for showing the edit form.
func (s *appointmentService) Get(ctx context.Context, id int64, requester *domain.User) (*domain.Appointment, error) {
	return s.authorize(ctx, id, requester)
}

func (s *appointmentService) Update(ctx context.Context, id int64, date, timeOfDay string, requester *domain.User) (*domain.Appointment, error) {
	if date == "" {
		return nil, &ValidationError{Field: "date", Reason: "is required"}
	}
	if timeOfDay == "" {
		return nil, &ValidationError{Field: "time", Reason: "is required"}
	}

	appt, err := s.authorize(ctx, id, requester)
	if err != nil {
		return nil, err
	}

	if err := s.appointments.UpdateSchedule(ctx, id, date, timeOfDay); err != nil {
		return nil, err
	}
	appt.Date = date
	appt.Time = timeOfDay
	return appt, nil
}

func (s *appointmentService) Delete(ctx context.Context, id int64, requester *domain.User) error {
	if _, err := s.authorize(ctx, id, requester); err != nil {
		return err
	}
	return s.appointments.Delete(ctx, id)
}

// authorize loads the appointment and enforces the mutation rule: only the
// owning patient may change or delete a booking. Doctors have no mutation
// rights, including over appointments assigned to them.
func (s *appointmentService) authorize(ctx context.Context, id int64, requester *domain.User) (*domain.Appointment, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	if requester == nil || requester.Role != domain.RolePatient || appt.OwnerID != requester.ID {
		return nil, ErrNotAuthorized
	}
	return appt, nil
}
