package repository

import (
	"context"

	"clinic-booking/internal/domain"
)

// AppointmentRepository exposes persistence operations for Appointment records.
type AppointmentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, appt *domain.Appointment) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Appointment, error)
	UpdateSchedule(ctx context.Context, id int64, date, timeOfDay string) error
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Appointment, error)
	ListByDoctorName(ctx context.Context, doctorName string) ([]domain.Appointment, error)
}
