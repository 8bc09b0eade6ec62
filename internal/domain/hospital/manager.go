package hospital

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultReservationTTL is the hold duration applied when a reserve call
// does not specify one.
const DefaultReservationTTL = 30 * time.Minute

// BedManager owns the bed pools, active reservations and waiting lists of
// one hospital. All state lives inside the instance; independent managers
// are fully isolated and every operation is a single critical section on
// the manager's mutex, so a reserve checks availability, picks a bed, flips
// its status and updates counters as one atomic unit.
//
// Reservation expiry is advisory: a reservation past its ExpiresAt stays
// RESERVED until it is confirmed or explicitly released. No background
// sweep exists.
type BedManager struct {
	mu           sync.Mutex
	pools        map[BedType]*pool
	order        []BedType
	reservations map[string]Reservation
	waiting      map[BedType][]string
	logger       *zap.Logger
	now          func() time.Time
}

// pool holds the beds of one type plus aggregate counters. The counters
// always satisfy available+occupied+reserved+maintenance == len(beds).
type pool struct {
	beds        []*Bed
	available   int
	occupied    int
	reserved    int
	maintenance int
}

// NewBedManager provisions bed pools from specs; nil specs provision the
// default hospital layout. All beds start AVAILABLE.
func NewBedManager(specs []PoolSpec, logger *zap.Logger) *BedManager {
	if specs == nil {
		specs = DefaultPools()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &BedManager{
		pools:        make(map[BedType]*pool, len(specs)),
		reservations: make(map[string]Reservation),
		waiting:      make(map[BedType][]string),
		logger:       logger,
		now:          time.Now,
	}

	for _, spec := range specs {
		p := &pool{
			beds:      make([]*Bed, 0, spec.Size),
			available: spec.Size,
		}
		for i := 1; i <= spec.Size; i++ {
			p.beds = append(p.beds, &Bed{
				ID:     fmt.Sprintf(spec.IDFormat, i),
				Status: StatusAvailable,
				// Each bed owns its equipment list so callers holding a
				// ReservationResult cannot mutate another bed's.
				Equipment: slices.Clone(spec.Equipment),
			})
		}
		m.pools[spec.Type] = p
		m.order = append(m.order, spec.Type)
	}

	return m
}

// Availability returns a snapshot for one bed type. Unknown types are a
// contract violation and panic.
func (m *BedManager) Availability(t BedType) Availability {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(t)
}

// AllAvailability returns snapshots for every provisioned pool, in
// provisioning order.
func (m *BedManager) AllAvailability() []Availability {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Availability, 0, len(m.order))
	for _, t := range m.order {
		out = append(out, m.snapshotLocked(t))
	}
	return out
}

func (m *BedManager) snapshotLocked(t BedType) Availability {
	p := m.pool(t)
	total := len(p.beds)
	rate := 0.0
	if total > 0 {
		rate = math.Round(float64(p.occupied)/float64(total)*1000) / 10
	}
	return Availability{
		BedType:       t,
		Total:         total,
		Available:     p.available,
		Occupied:      p.occupied,
		Reserved:      p.reserved,
		Maintenance:   p.maintenance,
		OccupancyRate: rate,
	}
}

// Reserve holds a bed of the requested type for an incoming emergency.
// When the preferred pool is exhausted, one fallback hop through the fixed
// adjacency is attempted; when that fails too, the emergency joins the
// preferred type's waiting list and the result reports the position.
//
// Reserve is idempotent per emergency id: a repeat call while a reservation
// is active returns the existing reservation flagged AlreadyReserved, with
// no state change. Non-positive duration falls back to
// DefaultReservationTTL. Unknown bed types panic.
func (m *BedManager) Reserve(t BedType, patientID, emergencyID string, duration time.Duration) ReservationResult {
	if duration <= 0 {
		duration = DefaultReservationTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pool(t) // fail fast on unknown type

	if existing, ok := m.reservations[emergencyID]; ok {
		m.logger.Debug("duplicate reserve for active reservation",
			zap.String("emergency_id", emergencyID),
			zap.String("bed_id", existing.BedID))
		return ReservationResult{
			Success:         true,
			AlreadyReserved: true,
			BedID:           existing.BedID,
			BedType:         existing.BedType,
			Equipment:       slices.Clone(m.bedByID(existing.BedType, existing.BedID).Equipment),
			ExpiresAt:       existing.ExpiresAt,
		}
	}

	if res, ok := m.reserveLocked(t, patientID, emergencyID, duration); ok {
		return res
	}

	// One fallback hop, in listed order.
	for _, alt := range fallbackRoutes[t] {
		if _, ok := m.pools[alt]; !ok {
			continue
		}
		if res, ok := m.reserveLocked(alt, patientID, emergencyID, duration); ok {
			res.Alternative = true
			res.PreferredType = t
			m.logger.Info("alternative bed allocated",
				zap.String("emergency_id", emergencyID),
				zap.String("preferred", string(t)),
				zap.String("allocated", string(alt)),
				zap.String("bed_id", res.BedID))
			return res
		}
	}

	m.waiting[t] = append(m.waiting[t], emergencyID)
	position := len(m.waiting[t])
	m.logger.Warn("no beds available, added to waiting list",
		zap.String("emergency_id", emergencyID),
		zap.String("bed_type", string(t)),
		zap.Int("position", position))
	return ReservationResult{
		Success:         false,
		PreferredType:   t,
		WaitingPosition: position,
		Message:         "No beds available",
	}
}

// reserveLocked picks the first AVAILABLE bed of type t in pool order
// (lowest bed id first) and transitions it to RESERVED.
func (m *BedManager) reserveLocked(t BedType, patientID, emergencyID string, duration time.Duration) (ReservationResult, bool) {
	p := m.pool(t)
	if p.available == 0 {
		return ReservationResult{}, false
	}

	for _, bed := range p.beds {
		if bed.Status != StatusAvailable {
			continue
		}

		now := m.now()
		bed.Status = StatusReserved
		bed.ReservedFor = patientID
		bed.ReservedAt = now
		bed.ExpiresAt = now.Add(duration)
		p.available--
		p.reserved++

		m.reservations[emergencyID] = Reservation{
			EmergencyID: emergencyID,
			BedID:       bed.ID,
			BedType:     t,
			PatientID:   patientID,
			ReservedAt:  bed.ReservedAt,
			ExpiresAt:   bed.ExpiresAt,
		}

		m.logger.Info("bed reserved",
			zap.String("emergency_id", emergencyID),
			zap.String("patient_id", patientID),
			zap.String("bed_id", bed.ID),
			zap.Time("expires_at", bed.ExpiresAt))

		return ReservationResult{
			Success:   true,
			BedID:     bed.ID,
			BedType:   t,
			Equipment: slices.Clone(bed.Equipment),
			ExpiresAt: bed.ExpiresAt,
		}, true
	}

	return ReservationResult{}, false
}

// ConfirmAdmission converts a reservation into an occupied bed. Returns
// false when no active reservation exists for the emergency id; an absent
// reservation is an ordinary negative result, not an error.
func (m *BedManager) ConfirmAdmission(emergencyID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.reservations[emergencyID]
	if !ok {
		return false
	}

	bed := m.bedByID(res.BedType, res.BedID)
	if bed == nil || bed.Status != StatusReserved {
		return false
	}

	p := m.pool(res.BedType)
	bed.Status = StatusOccupied
	bed.PatientID = res.PatientID
	bed.AdmittedAt = m.now()
	bed.ReservedFor = ""
	p.reserved--
	p.occupied++
	delete(m.reservations, emergencyID)

	m.logger.Info("admission confirmed",
		zap.String("emergency_id", emergencyID),
		zap.String("patient_id", res.PatientID),
		zap.String("bed_id", res.BedID))
	return true
}

// Release cancels an active reservation and returns the bed to AVAILABLE.
// Returns false when no reservation exists for the emergency id.
func (m *BedManager) Release(emergencyID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.reservations[emergencyID]
	if !ok {
		return false
	}

	bed := m.bedByID(res.BedType, res.BedID)
	if bed == nil || bed.Status != StatusReserved {
		return false
	}

	p := m.pool(res.BedType)
	bed.Status = StatusAvailable
	bed.ReservedFor = ""
	bed.ReservedAt = time.Time{}
	bed.ExpiresAt = time.Time{}
	p.reserved--
	p.available++
	delete(m.reservations, emergencyID)

	m.logger.Info("reservation released",
		zap.String("emergency_id", emergencyID),
		zap.String("bed_id", res.BedID))
	return true
}

// Reservation returns the active reservation for an emergency id, if any.
func (m *BedManager) Reservation(emergencyID string) (Reservation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.reservations[emergencyID]
	return res, ok
}

// WaitingList returns a copy of the waiting list for a bed type.
func (m *BedManager) WaitingList(t BedType) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.waiting[t]))
	copy(out, m.waiting[t])
	return out
}

// SetMaintenance takes an AVAILABLE bed out of service. Returns false when
// the bed does not exist or is not available.
func (m *BedManager) SetMaintenance(bedID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.order {
		p := m.pools[t]
		for _, bed := range p.beds {
			if bed.ID != bedID {
				continue
			}
			if bed.Status != StatusAvailable {
				return false
			}
			bed.Status = StatusMaintenance
			p.available--
			p.maintenance++
			m.logger.Info("bed under maintenance", zap.String("bed_id", bedID))
			return true
		}
	}
	return false
}

// ClearMaintenance returns a MAINTENANCE bed to service.
func (m *BedManager) ClearMaintenance(bedID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.order {
		p := m.pools[t]
		for _, bed := range p.beds {
			if bed.ID != bedID {
				continue
			}
			if bed.Status != StatusMaintenance {
				return false
			}
			bed.Status = StatusAvailable
			p.maintenance--
			p.available++
			return true
		}
	}
	return false
}

// Beds returns a snapshot of all beds of one type, sorted by id.
func (m *BedManager) Beds(t BedType) []Bed {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.pool(t)
	out := make([]Bed, 0, len(p.beds))
	for _, bed := range p.beds {
		snap := *bed
		snap.Equipment = slices.Clone(bed.Equipment)
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *BedManager) pool(t BedType) *pool {
	p, ok := m.pools[t]
	if !ok {
		panic(fmt.Sprintf("hospital: unknown bed type %q", t))
	}
	return p
}

func (m *BedManager) bedByID(t BedType, id string) *Bed {
	for _, bed := range m.pool(t).beds {
		if bed.ID == id {
			return bed
		}
	}
	return nil
}
