package triage

import "math"

// Severity bounds. A severity is always clamped into this range.
const (
	MinSeverity = 1
	MaxSeverity = 10
)

// Score computes the severity for one emergency from vitals, medical
// history and the upstream AI risk score (expected in [0,1]).
//
// The score is a weighted, capped sum of four components:
//
//	vitals  0-4  threshold bands per vital, most severe band only
//	AI      0-3  aiRisk * 3
//	history 0-2  fixed points per flag, capped at 2.0
//	age     0-1  mutually exclusive bands
//
// The returned severity is round(total) clamped to [1,10], where rounding
// is half-away-from-zero (math.Round). Score is pure and has no error
// conditions: absent vitals fall back to their normal defaults.
func Score(vitals Vitals, history History, aiRisk float64) (int, Breakdown) {
	vitalScore := scoreVitals(vitals)
	aiScore := aiRisk * 3
	historyScore := scoreHistory(history)
	ageScore := scoreAge(vitals.Get(VitalAge, DefaultAge))

	total := vitalScore + aiScore + historyScore + ageScore

	severity := int(math.Round(total))
	if severity < MinSeverity {
		severity = MinSeverity
	} else if severity > MaxSeverity {
		severity = MaxSeverity
	}

	return severity, Breakdown{
		VitalScore:   round2(vitalScore),
		AIScore:      round2(aiScore),
		HistoryScore: round2(historyScore),
		AgeScore:     round2(ageScore),
		Total:        round2(total),
	}
}

// scoreVitals applies one threshold band per vital; bands within a vital do
// not stack, the first matching (most severe) wins.
func scoreVitals(vitals Vitals) float64 {
	score := 0.0

	switch spo2 := vitals.Get(VitalSpO2, DefaultSpO2); {
	case spo2 < 85:
		score += 1.5
	case spo2 < 90:
		score += 1.0
	case spo2 < 94:
		score += 0.5
	}

	switch hr := vitals.Get(VitalHeartRate, DefaultHeartRate); {
	case hr > 130 || hr < 45:
		score += 1.0
	case hr > 110 || hr < 55:
		score += 0.5
	}

	switch sys := vitals.Get(VitalBPSystolic, DefaultBPSystolic); {
	case sys > 200 || sys < 80:
		score += 1.0
	case sys > 160 || sys < 90:
		score += 0.5
	}

	if sugar := vitals.Get(VitalBloodSugar, DefaultBloodSugar); sugar > 400 || sugar < 40 {
		score += 0.5
	}

	return score
}

func scoreHistory(history History) float64 {
	score := 0.0
	if history.Has(HistoryCardiac) {
		score += 0.7
	}
	if history.Has(HistoryDiabetes) {
		score += 0.4
	}
	if history.Has(HistoryRespiratory) {
		score += 0.5
	}
	if history.Has(HistoryRecentSurgery) {
		score += 0.4
	}
	return math.Min(2.0, score)
}

// scoreAge bands are mutually exclusive and evaluated in order, so a
// 72-year-old scores 1.0, not 0.7.
func scoreAge(age float64) float64 {
	switch {
	case age > 70:
		return 1.0
	case age > 60:
		return 0.7
	case age > 50:
		return 0.4
	case age < 5:
		return 0.8
	default:
		return 0.2
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
