package model

import "time"

// TreatmentOption is a catalog entry: a treatment, its price, and the full
// slot template for a day. The template is never mutated by bookings;
// availability is computed by subtracting booked slots at read time.
type TreatmentOption struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	PriceCents int64    `json:"price_cents"`
	Slots      []string `json:"slots"`
}

// Booking holds a slot for one patient on one date. At most one booking may
// exist per (email, treatment, appointment date); the store enforces this with
// a unique index. An unpaid booking still holds its slot.
type Booking struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Treatment       string    `json:"treatment"`
	AppointmentDate string    `json:"appointment_date"`
	Slot            string    `json:"slot"`
	PatientName     string    `json:"patient_name"`
	Phone           string    `json:"phone"`
	PriceCents      int64     `json:"price_cents"`
	Paid            bool      `json:"paid"`
	TransactionID   string    `json:"transaction_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

const RoleAdmin = "Admin"

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Doctor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Specialty string `json:"specialty"`
	ImageURL  string `json:"image_url,omitempty"`
}

// Payment is an append-only ledger entry. Recording one marks the referenced
// booking paid; the ledger row itself is never updated.
type Payment struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"booking_id"`
	Email         string    `json:"email"`
	PriceCents    int64     `json:"price_cents"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}
