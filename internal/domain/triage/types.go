// Package triage implements severity scoring and priority ordering for
// incoming emergencies.
package triage

import "time"

// Vitals is the raw vitals reading supplied by collaborators. Keys are
// untyped on purpose: the engine reads known keys and substitutes a
// clinically normal default for anything absent. Range validation happens
// upstream.
type Vitals map[string]float64

// Known vitals keys.
const (
	VitalAge         = "age"
	VitalBPSystolic  = "bp_systolic"
	VitalBPDiastolic = "bp_diastolic"
	VitalBloodSugar  = "blood_sugar"
	VitalHeartRate   = "heart_rate"
	VitalSpO2        = "spo2"
)

// Normal defaults used when a vital is not reported. An omitted field is
// scored as if that vital were normal; this is an implicit default, not
// validation.
const (
	DefaultAge        = 30.0
	DefaultBPSystolic = 120.0
	DefaultBloodSugar = 100.0
	DefaultHeartRate  = 75.0
	DefaultSpO2       = 100.0
)

// Get returns the value for key, or def when the key is absent.
func (v Vitals) Get(key string, def float64) float64 {
	if v == nil {
		return def
	}
	if val, ok := v[key]; ok {
		return val
	}
	return def
}

// History is the set of medical history flags for a patient. Missing key
// means false. The set is open-ended; the scorer only reads known flags.
type History map[string]bool

// History flags the scorer weighs.
const (
	HistoryCardiac       = "cardiac_history"
	HistoryDiabetes      = "diabetes"
	HistoryRespiratory   = "respiratory_disease"
	HistoryRecentSurgery = "recent_surgery"
)

// Has reports whether the flag is present and set.
func (h History) Has(flag string) bool {
	return h != nil && h[flag]
}

// Breakdown explains how a severity score was assembled. Values are rounded
// to two decimals for presentation; Total is the unrounded component used to
// derive the severity before rounding. The breakdown is retained for audit
// and never recomputed downstream.
type Breakdown struct {
	VitalScore   float64 `json:"vital_score"`
	AIScore      float64 `json:"ai_score"`
	HistoryScore float64 `json:"history_score"`
	AgeScore     float64 `json:"age_score"`
	Total        float64 `json:"total"`
}

// Emergency is a queue entry. Sequence is strictly increasing per queue
// instance and is used only to break ties, never as a priority signal on
// its own. Payload is an opaque reference owned by the caller.
type Emergency struct {
	Severity   int       `json:"severity"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Sequence   uint64    `json:"sequence"`
	Payload    any       `json:"-"`
}
