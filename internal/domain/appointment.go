package domain

import "time"

// Appointment is a booking made by a patient with a doctor. PatientName and
// DoctorName are denormalized copies of the usernames at booking time; OwnerID
// is the authorization anchor and always references the booking patient.
type Appointment struct {
	ID          int64
	PatientName string
	DoctorName  string
	Date        string
	Time        string
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
