package hospital

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkInvariants asserts that per-bed statuses and aggregate counters
// agree for every provisioned pool.
func checkInvariants(t *testing.T, m *BedManager) {
	t.Helper()
	for _, snap := range m.AllAvailability() {
		var available, occupied, reserved, maintenance int
		for _, bed := range m.Beds(snap.BedType) {
			switch bed.Status {
			case StatusAvailable:
				available++
			case StatusOccupied:
				occupied++
			case StatusReserved:
				reserved++
			case StatusMaintenance:
				maintenance++
			}
		}
		require.Equal(t, snap.Available, available, "%s available", snap.BedType)
		require.Equal(t, snap.Occupied, occupied, "%s occupied", snap.BedType)
		require.Equal(t, snap.Reserved, reserved, "%s reserved", snap.BedType)
		require.Equal(t, snap.Maintenance, maintenance, "%s maintenance", snap.BedType)
		require.Equal(t, snap.Total, available+occupied+reserved+maintenance, "%s total", snap.BedType)
	}
}

func TestNewBedManagerDefaults(t *testing.T) {
	m := NewBedManager(nil, nil)

	icu := m.Availability(BedICU)
	assert.Equal(t, 20, icu.Total)
	assert.Equal(t, 20, icu.Available)
	assert.Equal(t, 0.0, icu.OccupancyRate)

	all := m.AllAvailability()
	require.Len(t, all, 4)
	assert.Equal(t, BedICU, all[0].BedType)
	assert.Equal(t, 100, all[3].Total)

	beds := m.Beds(BedGeneral)
	assert.Equal(t, "GEN-001", beds[0].ID)
	checkInvariants(t, m)
}

func TestAvailabilityUnknownTypePanics(t *testing.T) {
	m := NewBedManager(nil, nil)
	assert.Panics(t, func() { m.Availability(BedType("CARDIAC")) })
	assert.Panics(t, func() { m.Reserve(BedIsolation, "p", "e", 0) })
}

func TestReservePicksLowestBedID(t *testing.T) {
	m := NewBedManager(nil, nil)

	res := m.Reserve(BedICU, "P1", "EMG-1", 0)
	require.True(t, res.Success)
	assert.Equal(t, "ICU-01", res.BedID)
	assert.Equal(t, BedICU, res.BedType)
	assert.Contains(t, res.Equipment, "Ventilator")
	assert.False(t, res.Alternative)
	assert.False(t, res.ExpiresAt.IsZero())

	res = m.Reserve(BedICU, "P2", "EMG-2", 0)
	require.True(t, res.Success)
	assert.Equal(t, "ICU-02", res.BedID)

	icu := m.Availability(BedICU)
	assert.Equal(t, 18, icu.Available)
	assert.Equal(t, 2, icu.Reserved)
	checkInvariants(t, m)
}

func TestReserveExhaustionFallsBackOneHop(t *testing.T) {
	specs := []PoolSpec{
		{Type: BedICU, Size: 2, IDFormat: "ICU-%02d", Equipment: []string{"Ventilator"}},
		{Type: BedHDU, Size: 1, IDFormat: "HDU-%02d", Equipment: []string{"Oxygen"}},
	}
	m := NewBedManager(specs, nil)

	for i := 1; i <= 2; i++ {
		res := m.Reserve(BedICU, fmt.Sprintf("P%d", i), fmt.Sprintf("EMG-%d", i), 0)
		require.True(t, res.Success)
	}
	assert.Equal(t, 0, m.Availability(BedICU).Available)
	assert.Equal(t, 2, m.Availability(BedICU).Reserved)

	// Third reservation falls back to HDU and records the preference.
	res := m.Reserve(BedICU, "P3", "EMG-3", 0)
	require.True(t, res.Success)
	assert.True(t, res.Alternative)
	assert.Equal(t, BedICU, res.PreferredType)
	assert.Equal(t, BedHDU, res.BedType)
	assert.Equal(t, "HDU-01", res.BedID)

	// Fourth finds nothing anywhere: waiting list, position 1.
	res = m.Reserve(BedICU, "P4", "EMG-4", 0)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.WaitingPosition)

	// Fifth queues behind it.
	res = m.Reserve(BedICU, "P5", "EMG-5", 0)
	assert.False(t, res.Success)
	assert.Equal(t, 2, res.WaitingPosition)
	assert.Equal(t, []string{"EMG-4", "EMG-5"}, m.WaitingList(BedICU))
	checkInvariants(t, m)
}

func TestReserveOnlyOneFallbackHop(t *testing.T) {
	// GENERAL falls back to OXYGEN only; with both empty the chain must not
	// continue to HDU even though HDU has capacity.
	specs := []PoolSpec{
		{Type: BedGeneral, Size: 0, IDFormat: "GEN-%03d"},
		{Type: BedOxygen, Size: 0, IDFormat: "OXY-%02d"},
		{Type: BedHDU, Size: 5, IDFormat: "HDU-%02d"},
	}
	m := NewBedManager(specs, nil)

	res := m.Reserve(BedGeneral, "P1", "EMG-1", 0)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.WaitingPosition)
	assert.Equal(t, 5, m.Availability(BedHDU).Available)
}

func TestReserveIdempotentPerEmergency(t *testing.T) {
	m := NewBedManager(nil, nil)

	first := m.Reserve(BedICU, "P1", "EMG-1", 0)
	require.True(t, first.Success)

	second := m.Reserve(BedICU, "P1", "EMG-1", 0)
	require.True(t, second.Success)
	assert.True(t, second.AlreadyReserved)
	assert.Equal(t, first.BedID, second.BedID)
	assert.Equal(t, first.ExpiresAt, second.ExpiresAt)

	// No second bed was consumed.
	assert.Equal(t, 1, m.Availability(BedICU).Reserved)
	checkInvariants(t, m)
}

func TestConfirmAdmissionRoundTrip(t *testing.T) {
	m := NewBedManager(nil, nil)
	before := m.Availability(BedHDU)

	res := m.Reserve(BedHDU, "P1", "EMG-1", 15*time.Minute)
	require.True(t, res.Success)

	require.True(t, m.ConfirmAdmission("EMG-1"))

	after := m.Availability(BedHDU)
	assert.Equal(t, before.Reserved, after.Reserved)
	assert.Equal(t, before.Occupied+1, after.Occupied)
	assert.Equal(t, before.Available-1, after.Available)

	bed := m.Beds(BedHDU)[0]
	assert.Equal(t, StatusOccupied, bed.Status)
	assert.Equal(t, "P1", bed.PatientID)
	assert.False(t, bed.AdmittedAt.IsZero())

	// The reservation is consumed: confirming again is a negative result.
	assert.False(t, m.ConfirmAdmission("EMG-1"))
	_, ok := m.Reservation("EMG-1")
	assert.False(t, ok)
	checkInvariants(t, m)
}

func TestConfirmAdmissionUnknownID(t *testing.T) {
	m := NewBedManager(nil, nil)
	assert.False(t, m.ConfirmAdmission("no-such-emergency"))
}

func TestRelease(t *testing.T) {
	m := NewBedManager(nil, nil)

	res := m.Reserve(BedOxygen, "P1", "EMG-1", 0)
	require.True(t, res.Success)
	require.Equal(t, 39, m.Availability(BedOxygen).Available)

	require.True(t, m.Release("EMG-1"))
	assert.Equal(t, 40, m.Availability(BedOxygen).Available)
	assert.Equal(t, 0, m.Availability(BedOxygen).Reserved)

	bed := m.Beds(BedOxygen)[0]
	assert.Equal(t, StatusAvailable, bed.Status)
	assert.Empty(t, bed.ReservedFor)
	assert.True(t, bed.ExpiresAt.IsZero())

	assert.False(t, m.Release("EMG-1"))
	checkInvariants(t, m)
}

func TestReservationEquipmentIsDetached(t *testing.T) {
	m := NewBedManager(nil, nil)

	res := m.Reserve(BedICU, "P1", "EMG-1", 0)
	require.True(t, res.Success)
	require.NotEmpty(t, res.Equipment)

	// Mutating the handed-out slice must not reach the beds.
	res.Equipment[0] = "tampered"
	assert.Equal(t, "Ventilator", m.Beds(BedICU)[0].Equipment[0])
	assert.Equal(t, "Ventilator", m.Beds(BedICU)[1].Equipment[0])

	dup := m.Reserve(BedICU, "P1", "EMG-1", 0)
	require.True(t, dup.AlreadyReserved)
	dup.Equipment[0] = "tampered"
	assert.Equal(t, "Ventilator", m.Beds(BedICU)[0].Equipment[0])
}

func TestMaintenanceTransitions(t *testing.T) {
	m := NewBedManager(nil, nil)

	require.True(t, m.SetMaintenance("ICU-01"))
	icu := m.Availability(BedICU)
	assert.Equal(t, 19, icu.Available)
	assert.Equal(t, 1, icu.Maintenance)

	// A reserved or maintenance bed cannot be re-flagged.
	assert.False(t, m.SetMaintenance("ICU-01"))
	assert.False(t, m.SetMaintenance("no-such-bed"))

	// The first reservation now skips the maintenance bed.
	res := m.Reserve(BedICU, "P1", "EMG-1", 0)
	require.True(t, res.Success)
	assert.Equal(t, "ICU-02", res.BedID)

	require.True(t, m.ClearMaintenance("ICU-01"))
	assert.Equal(t, 19, m.Availability(BedICU).Available)
	assert.False(t, m.ClearMaintenance("ICU-01"))
	checkInvariants(t, m)
}

func TestOccupancyRate(t *testing.T) {
	specs := []PoolSpec{{Type: BedICU, Size: 3, IDFormat: "ICU-%02d"}}
	m := NewBedManager(specs, nil)

	m.Reserve(BedICU, "P1", "EMG-1", 0)
	m.ConfirmAdmission("EMG-1")

	// 1/3 occupied rounds to 33.3.
	assert.Equal(t, 33.3, m.Availability(BedICU).OccupancyRate)
}

func TestConcurrentReserveNoDoubleAllocation(t *testing.T) {
	const poolSize = 5
	const contenders = 20
	specs := []PoolSpec{{Type: BedICU, Size: poolSize, IDFormat: "ICU-%02d"}}
	m := NewBedManager(specs, nil)

	results := make([]ReservationResult, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.Reserve(BedICU, fmt.Sprintf("P%d", i), fmt.Sprintf("EMG-%d", i), 0)
		}(i)
	}
	wg.Wait()

	var succeeded int
	beds := make(map[string]bool)
	for _, res := range results {
		if res.Success {
			succeeded++
			assert.False(t, beds[res.BedID], "bed %s allocated twice", res.BedID)
			beds[res.BedID] = true
		} else {
			assert.Greater(t, res.WaitingPosition, 0)
		}
	}
	assert.Equal(t, poolSize, succeeded)
	assert.Equal(t, 0, m.Availability(BedICU).Available)
	assert.Equal(t, poolSize, m.Availability(BedICU).Reserved)
	assert.Len(t, m.WaitingList(BedICU), contenders-poolSize)
	checkInvariants(t, m)
}

func TestConcurrentReserveAndConfirm(t *testing.T) {
	m := NewBedManager(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("EMG-%d", i)
			if res := m.Reserve(BedGeneral, fmt.Sprintf("P%d", i), id, 0); res.Success {
				m.ConfirmAdmission(id)
			}
		}(i)
	}
	wg.Wait()

	gen := m.Availability(BedGeneral)
	assert.Equal(t, 30, gen.Occupied)
	assert.Equal(t, 0, gen.Reserved)
	assert.Equal(t, 70, gen.Available)
	checkInvariants(t, m)
}
