package ambulance

import (
	"math"
	"strings"

	"github.com/lifeline/go-ems/internal/domain/triage"
)

// Defaults for ETA estimation.
const (
	DefaultTrafficFactor = 1.2
	DefaultAvgSpeedKMH   = 40.0

	// MinETAMinutes is the operational safety margin: even a zero-distance
	// trip reports at least this ETA.
	MinETAMinutes = 5

	earthRadiusKM = 6371.0
)

var (
	cardiacKeywords     = []string{"chest pain", "heart", "cardiac"}
	respiratoryKeywords = []string{"breathing", "breathless", "asthma"}
)

// ChooseType picks the ambulance class for an emergency. The decision is a
// priority chain evaluated in order, first match wins:
//
//  1. severity >= 8            ICU
//  2. spo2 < 90                OXYGEN
//  3. cardiac symptom words    ICU
//  4. respiratory symptom words OXYGEN
//  5. severity >= 6            OXYGEN
//  6. otherwise                BASIC
//
// Order matters: a severity-9 patient with breathing complaints still gets
// an ICU ambulance because the severity check runs first. Symptom matching
// is case-insensitive substring search, nothing more.
func ChooseType(severity int, vitals triage.Vitals, symptoms string) Type {
	if severity >= 8 {
		return TypeICU
	}
	if vitals.Get(triage.VitalSpO2, triage.DefaultSpO2) < 90 {
		return TypeOxygen
	}

	lowered := strings.ToLower(symptoms)
	if containsAny(lowered, cardiacKeywords) {
		return TypeICU
	}
	if containsAny(lowered, respiratoryKeywords) {
		return TypeOxygen
	}

	if severity >= 6 {
		return TypeOxygen
	}
	return TypeBasic
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceKM returns the great-circle distance between two coordinates via
// the haversine formula. Coordinates are not validated here; that is the
// caller's responsibility.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	dlat := radians(lat2 - lat1)
	dlon := radians(lon2 - lon1)

	a := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}

// ETAMinutes estimates the ambulance arrival time in whole minutes for a
// trip of distanceKM, scaled by trafficFactor at avgSpeedKMH. Non-positive
// factor or speed fall back to the defaults. The result is truncated to an
// int and never drops below MinETAMinutes.
func ETAMinutes(distanceKM, trafficFactor, avgSpeedKMH float64) int {
	if trafficFactor <= 0 {
		trafficFactor = DefaultTrafficFactor
	}
	if avgSpeedKMH <= 0 {
		avgSpeedKMH = DefaultAvgSpeedKMH
	}

	minutes := int(distanceKM / avgSpeedKMH * trafficFactor * 60)
	if minutes < MinETAMinutes {
		return MinETAMinutes
	}
	return minutes
}
