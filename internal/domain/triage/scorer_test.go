package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreAllNormalDefaults(t *testing.T) {
	severity, breakdown := Score(nil, nil, 0)

	// Only the age component contributes: the default age 30 falls in the
	// residual 0.2 band, and the floor clamp lifts the severity to 1.
	assert.Equal(t, 1, severity)
	assert.Equal(t, 0.0, breakdown.VitalScore)
	assert.Equal(t, 0.0, breakdown.AIScore)
	assert.Equal(t, 0.0, breakdown.HistoryScore)
	assert.Equal(t, 0.2, breakdown.AgeScore)
	assert.InDelta(t, 0.2, breakdown.Total, 1e-9)
}

func TestScoreExplicitNormalVitals(t *testing.T) {
	vitals := Vitals{
		VitalAge:        30,
		VitalSpO2:       100,
		VitalHeartRate:  75,
		VitalBPSystolic: 120,
		VitalBloodSugar: 100,
	}
	severity, breakdown := Score(vitals, History{}, 0)
	assert.Equal(t, 1, severity)
	assert.InDelta(t, 0.2, breakdown.Total, 1e-9)
}

func TestScoreAgeBands(t *testing.T) {
	cases := []struct {
		age  float64
		want float64
	}{
		{71, 1.0},
		{65, 0.7},
		{55, 0.4},
		{3, 0.8},
		{20, 0.2},
	}
	for _, tc := range cases {
		_, breakdown := Score(Vitals{VitalAge: tc.age}, nil, 0)
		assert.Equal(t, tc.want, breakdown.AgeScore, "age %v", tc.age)
	}
}

func TestScoreVitalBandsDoNotStack(t *testing.T) {
	// SpO2 of 80 matches the <85 band only; the <90 and <94 bands must not
	// pile on top.
	_, breakdown := Score(Vitals{VitalSpO2: 80}, nil, 0)
	assert.Equal(t, 1.5, breakdown.VitalScore)

	_, breakdown = Score(Vitals{VitalSpO2: 92}, nil, 0)
	assert.Equal(t, 0.5, breakdown.VitalScore)
}

func TestScoreVitalThresholds(t *testing.T) {
	cases := []struct {
		name   string
		vitals Vitals
		want   float64
	}{
		{"hr severe high", Vitals{VitalHeartRate: 131}, 1.0},
		{"hr severe low", Vitals{VitalHeartRate: 44}, 1.0},
		{"hr moderate high", Vitals{VitalHeartRate: 111}, 0.5},
		{"hr moderate low", Vitals{VitalHeartRate: 54}, 0.5},
		{"bp severe high", Vitals{VitalBPSystolic: 201}, 1.0},
		{"bp severe low", Vitals{VitalBPSystolic: 79}, 1.0},
		{"bp moderate high", Vitals{VitalBPSystolic: 161}, 0.5},
		{"bp moderate low", Vitals{VitalBPSystolic: 89}, 0.5},
		{"sugar high", Vitals{VitalBloodSugar: 401}, 0.5},
		{"sugar low", Vitals{VitalBloodSugar: 39}, 0.5},
		{"sugar normal", Vitals{VitalBloodSugar: 100}, 0.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, breakdown := Score(tc.vitals, nil, 0)
			assert.Equal(t, tc.want, breakdown.VitalScore)
		})
	}
}

func TestScoreHistoryCapped(t *testing.T) {
	history := History{
		HistoryCardiac:       true,
		HistoryDiabetes:      true,
		HistoryRespiratory:   true,
		HistoryRecentSurgery: true,
	}
	// 0.7 + 0.4 + 0.5 + 0.4 = 2.0; the cap keeps it there.
	_, breakdown := Score(nil, history, 0)
	assert.Equal(t, 2.0, breakdown.HistoryScore)

	_, breakdown = Score(nil, History{HistoryCardiac: true, HistoryDiabetes: true}, 0)
	assert.InDelta(t, 1.1, breakdown.HistoryScore, 1e-9)
}

func TestScoreCriticalPatient(t *testing.T) {
	vitals := Vitals{
		VitalAge:         58,
		VitalSpO2:        88,
		VitalHeartRate:   135,
		VitalBPSystolic:  185,
		VitalBPDiastolic: 110,
		VitalBloodSugar:  145,
	}
	history := History{HistoryCardiac: true, HistoryDiabetes: true}

	severity, breakdown := Score(vitals, history, 0.92)

	// vitals 1.0+1.0+0.5 = 2.5, AI 2.76, history 1.1, age 0.4
	require.InDelta(t, 2.5, breakdown.VitalScore, 1e-9)
	require.InDelta(t, 2.76, breakdown.AIScore, 1e-9)
	require.InDelta(t, 1.1, breakdown.HistoryScore, 1e-9)
	require.InDelta(t, 0.4, breakdown.AgeScore, 1e-9)
	assert.InDelta(t, 6.76, breakdown.Total, 1e-9)
	assert.Equal(t, 7, severity)
}

func TestScoreRoundsHalfAwayFromZero(t *testing.T) {
	// history 1.1 + age 0.2 + AI 1.2 = 2.5, which rounds up to 3.
	history := History{HistoryCardiac: true, HistoryDiabetes: true}
	severity, breakdown := Score(Vitals{VitalAge: 20}, history, 0.4)
	require.InDelta(t, 2.5, breakdown.Total, 1e-9)
	assert.Equal(t, 3, severity)
}

func TestScoreSeverityAlwaysInRange(t *testing.T) {
	extremes := []Vitals{
		nil,
		{VitalSpO2: 40, VitalHeartRate: 200, VitalBPSystolic: 250, VitalBloodSugar: 600, VitalAge: 90},
		{VitalSpO2: 100, VitalHeartRate: 75, VitalBPSystolic: 120, VitalBloodSugar: 100, VitalAge: 30},
	}
	fullHistory := History{
		HistoryCardiac:       true,
		HistoryDiabetes:      true,
		HistoryRespiratory:   true,
		HistoryRecentSurgery: true,
	}
	for _, v := range extremes {
		for _, h := range []History{nil, fullHistory} {
			for _, risk := range []float64{0, 0.5, 1.0} {
				severity, _ := Score(v, h, risk)
				assert.GreaterOrEqual(t, severity, MinSeverity)
				assert.LessOrEqual(t, severity, MaxSeverity)
			}
		}
	}
}
