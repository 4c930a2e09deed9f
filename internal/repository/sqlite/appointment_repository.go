package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinic-booking/internal/domain"
	"clinic-booking/internal/repository"
)

const createAppointmentsTable = `
CREATE TABLE IF NOT EXISTS appointments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_name TEXT NOT NULL,
	doctor_name TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	owner_id INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_appointments_owner ON appointments(owner_id);
CREATE INDEX IF NOT EXISTS idx_appointments_doctor ON appointments(doctor_name);
`

type AppointmentRepository struct {
	db *sql.DB
}

func NewAppointmentRepository(db *sql.DB) repository.AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAppointmentsTable); err != nil {
		return fmt.Errorf("create appointments table: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) Create(ctx context.Context, appt *domain.Appointment) (int64, error) {
	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO appointments (patient_name, doctor_name, date, time, owner_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		appt.PatientName,
		appt.DoctorName,
		appt.Date,
		appt.Time,
		appt.OwnerID,
		appt.CreatedAt,
		appt.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert appointment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("appointment last insert id: %w", err)
	}
	appt.ID = id
	return id, nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id int64) (*domain.Appointment, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, patient_name, doctor_name, date, time, owner_id, created_at, updated_at
FROM appointments
WHERE id = ?`,
		id,
	)
	return scanAppointment(row)
}

func (r *AppointmentRepository) UpdateSchedule(ctx context.Context, id int64, date, timeOfDay string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE appointments
SET date = ?, time = ?, updated_at = ?
WHERE id = ?`,
		date,
		timeOfDay,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}

func (r *AppointmentRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Appointment, error) {
	return r.list(ctx, `
SELECT id, patient_name, doctor_name, date, time, owner_id, created_at, updated_at
FROM appointments
WHERE owner_id = ?
ORDER BY id`,
		ownerID,
	)
}

func (r *AppointmentRepository) ListByDoctorName(ctx context.Context, doctorName string) ([]domain.Appointment, error) {
	return r.list(ctx, `
SELECT id, patient_name, doctor_name, date, time, owner_id, created_at, updated_at
FROM appointments
WHERE doctor_name = ?
ORDER BY id`,
		doctorName,
	)
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appts []domain.Appointment
	for rows.Next() {
		var appt domain.Appointment
		if err := rows.Scan(
			&appt.ID,
			&appt.PatientName,
			&appt.DoctorName,
			&appt.Date,
			&appt.Time,
			&appt.OwnerID,
			&appt.CreatedAt,
			&appt.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

func scanAppointment(row interface {
	Scan(dest ...any) error
}) (*domain.Appointment, error) {
	var appt domain.Appointment
	if err := row.Scan(
		&appt.ID,
		&appt.PatientName,
		&appt.DoctorName,
		&appt.Date,
		&appt.Time,
		&appt.OwnerID,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("appointment not found")
		}
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	return &appt, nil
}
