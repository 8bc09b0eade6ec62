// Package hospital manages bed inventory, reservations and admission for a
// single hospital.
package hospital

import "time"

// BedType identifies a bed class. ISOLATION is declared for completeness
// but no pool is provisioned for it by default and no fallback route leads
// to it.
type BedType string

const (
	BedICU       BedType = "ICU"
	BedHDU       BedType = "HDU"
	BedOxygen    BedType = "OXYGEN"
	BedGeneral   BedType = "GENERAL"
	BedIsolation BedType = "ISOLATION"
)

// BedStatus is the lifecycle state of one bed.
type BedStatus string

const (
	StatusAvailable   BedStatus = "AVAILABLE"
	StatusOccupied    BedStatus = "OCCUPIED"
	StatusReserved    BedStatus = "RESERVED"
	StatusMaintenance BedStatus = "MAINTENANCE"
)

// Bed is a single bed within a typed pool.
type Bed struct {
	ID        string    `json:"id"`
	Status    BedStatus `json:"status"`
	Equipment []string  `json:"equipment"`

	// Reservation metadata, set while Status is RESERVED.
	ReservedFor string    `json:"reserved_for,omitempty"`
	ReservedAt  time.Time `json:"reserved_at,omitzero"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`

	// Admission metadata, set once Status is OCCUPIED.
	PatientID  string    `json:"patient_id,omitempty"`
	AdmittedAt time.Time `json:"admitted_at,omitzero"`
}

// Reservation is a time-bounded hold on one bed for one incoming patient.
// At most one active reservation exists per emergency id; the reservation
// is owned exclusively by the bed it points to.
type Reservation struct {
	EmergencyID string    `json:"emergency_id"`
	BedID       string    `json:"bed_id"`
	BedType     BedType   `json:"bed_type"`
	PatientID   string    `json:"patient_id"`
	ReservedAt  time.Time `json:"reserved_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ReservationResult reports the outcome of a reserve call. Failure to find
// a bed is an expected outcome, not an error: callers branch on Success.
type ReservationResult struct {
	Success bool `json:"success"`

	// AlreadyReserved is set when the emergency id already held an active
	// reservation; the existing reservation is returned unchanged.
	AlreadyReserved bool `json:"already_reserved,omitempty"`

	BedID     string    `json:"bed_id,omitempty"`
	BedType   BedType   `json:"bed_type,omitempty"`
	Equipment []string  `json:"equipment,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`

	// Alternative is set when the bed came from a fallback type;
	// PreferredType records what was originally requested.
	Alternative   bool    `json:"is_alternative,omitempty"`
	PreferredType BedType `json:"preferred_type,omitempty"`

	// WaitingPosition is the patient's position on the preferred type's
	// waiting list when no bed could be found.
	WaitingPosition int    `json:"waiting_list_position,omitempty"`
	Message         string `json:"message,omitempty"`
}

// Availability is a read-only snapshot of one bed pool.
type Availability struct {
	BedType       BedType `json:"bed_type"`
	Total         int     `json:"total"`
	Available     int     `json:"available"`
	Occupied      int     `json:"occupied"`
	Reserved      int     `json:"reserved"`
	Maintenance   int     `json:"maintenance"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

// PoolSpec describes one bed pool to provision: how many beds, the id
// format and the fixed equipment fitted to every bed of the type.
type PoolSpec struct {
	Type      BedType
	Size      int
	IDFormat  string
	Equipment []string
}

// DefaultPools returns the standard hospital provisioning.
func DefaultPools() []PoolSpec {
	return []PoolSpec{
		{Type: BedICU, Size: 20, IDFormat: "ICU-%02d", Equipment: []string{"Ventilator", "Cardiac Monitor", "IV Pump"}},
		{Type: BedHDU, Size: 30, IDFormat: "HDU-%02d", Equipment: []string{"Oxygen", "Monitor", "IV Pump"}},
		{Type: BedOxygen, Size: 40, IDFormat: "OXY-%02d", Equipment: []string{"Oxygen Concentrator", "Pulse Oximeter"}},
		{Type: BedGeneral, Size: 100, IDFormat: "GEN-%03d", Equipment: []string{"Basic monitoring"}},
	}
}

// fallbackRoutes is the fixed one-hop adjacency between bed types, tried in
// listed order when the preferred pool is exhausted.
var fallbackRoutes = map[BedType][]BedType{
	BedICU:     {BedHDU},
	BedHDU:     {BedICU, BedOxygen},
	BedOxygen:  {BedHDU, BedGeneral},
	BedGeneral: {BedOxygen},
}
