// Package clinical provides non-prescriptive decision support for incoming
// emergencies: critical vital findings, suggested workups, specialist
// routing and bed type recommendations. Final decisions rest with the
// treating physician.
package clinical

import (
	"fmt"
	"strings"

	"github.com/lifeline/go-ems/internal/domain/hospital"
	"github.com/lifeline/go-ems/internal/domain/triage"
)

// Level grades a clinical finding.
type Level string

const (
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Finding flags one out-of-range vital with context for the receiving team.
type Finding struct {
	Parameter   string `json:"parameter"`
	Value       string `json:"value"`
	Level       Level  `json:"severity"`
	NormalRange string `json:"normal_range"`
	Concern     string `json:"concern"`
}

// RecommendBedType maps severity to the bed class the receiving hospital
// should prepare.
func RecommendBedType(severity int) hospital.BedType {
	switch {
	case severity >= 8:
		return hospital.BedICU
	case severity >= 6:
		return hospital.BedHDU
	default:
		return hospital.BedGeneral
	}
}

// CriticalVitals identifies which vitals warrant attention on arrival.
func CriticalVitals(vitals triage.Vitals) []Finding {
	var findings []Finding

	spo2 := vitals.Get(triage.VitalSpO2, triage.DefaultSpO2)
	if spo2 < 85 {
		findings = append(findings, Finding{
			Parameter:   "SpO2",
			Value:       fmt.Sprintf("%.0f%%", spo2),
			Level:       LevelCritical,
			NormalRange: "95-100%",
			Concern:     "Severe hypoxemia - immediate oxygen therapy required",
		})
	} else if spo2 < 90 {
		findings = append(findings, Finding{
			Parameter:   "SpO2",
			Value:       fmt.Sprintf("%.0f%%", spo2),
			Level:       LevelHigh,
			NormalRange: "95-100%",
			Concern:     "Hypoxemia - oxygen supplementation needed",
		})
	}

	hr := vitals.Get(triage.VitalHeartRate, triage.DefaultHeartRate)
	if hr > 130 {
		findings = append(findings, Finding{
			Parameter:   "Heart Rate",
			Value:       fmt.Sprintf("%.0f bpm", hr),
			Level:       LevelHigh,
			NormalRange: "60-100 bpm",
			Concern:     "Severe tachycardia - cardiac monitoring required",
		})
	} else if hr < 50 {
		findings = append(findings, Finding{
			Parameter:   "Heart Rate",
			Value:       fmt.Sprintf("%.0f bpm", hr),
			Level:       LevelHigh,
			NormalRange: "60-100 bpm",
			Concern:     "Bradycardia - assess for heart block",
		})
	}

	sys := vitals.Get(triage.VitalBPSystolic, triage.DefaultBPSystolic)
	dia := vitals.Get(triage.VitalBPDiastolic, 80)
	if sys > 180 {
		findings = append(findings, Finding{
			Parameter:   "Blood Pressure",
			Value:       fmt.Sprintf("%.0f/%.0f mmHg", sys, dia),
			Level:       LevelHigh,
			NormalRange: "90-140/60-90 mmHg",
			Concern:     "Hypertensive emergency - risk of stroke/MI",
		})
	} else if sys < 90 {
		findings = append(findings, Finding{
			Parameter:   "Blood Pressure",
			Value:       fmt.Sprintf("%.0f/%.0f mmHg", sys, dia),
			Level:       LevelHigh,
			NormalRange: "90-140/60-90 mmHg",
			Concern:     "Hypotension - assess for shock",
		})
	}

	sugar := vitals.Get(triage.VitalBloodSugar, triage.DefaultBloodSugar)
	if sugar > 300 {
		findings = append(findings, Finding{
			Parameter:   "Blood Sugar",
			Value:       fmt.Sprintf("%.0f mg/dL", sugar),
			Level:       LevelHigh,
			NormalRange: "70-140 mg/dL",
			Concern:     "Severe hyperglycemia - check for DKA",
		})
	} else if sugar < 50 {
		findings = append(findings, Finding{
			Parameter:   "Blood Sugar",
			Value:       fmt.Sprintf("%.0f mg/dL", sugar),
			Level:       LevelCritical,
			NormalRange: "70-140 mg/dL",
			Concern:     "Severe hypoglycemia - immediate glucose needed",
		})
	}

	return findings
}

// Suggestions produces non-prescriptive suggestions from the flagged
// findings and patient history.
func Suggestions(vitals triage.Vitals, history triage.History, findings []Finding) []string {
	var out []string

	for _, f := range findings {
		switch {
		case f.Parameter == "SpO2" && f.Level == LevelCritical:
			out = append(out,
				"Consider immediate high-flow oxygen therapy",
				"Assess airway patency and breathing effort",
				"Prepare for possible intubation")
		case f.Parameter == "Heart Rate" && vitals.Get(triage.VitalHeartRate, triage.DefaultHeartRate) > 130:
			out = append(out,
				"12-lead ECG recommended",
				"Consider cardiac causes (MI, arrhythmia)",
				"Assess for signs of heart failure")
		}
	}

	if history.Has(triage.HistoryCardiac) {
		out = append(out,
			"Review previous cardiac events and interventions",
			"Check for recent medication changes")
	}
	if history.Has(triage.HistoryDiabetes) {
		out = append(out,
			"Monitor blood glucose closely",
			"Assess for diabetic complications")
	}

	return out
}

// Investigations lists the workup to prepare before arrival.
func Investigations(vitals triage.Vitals, history triage.History) []string {
	investigations := []string{"Complete Blood Count", "Basic Metabolic Panel"}

	if vitals.Get(triage.VitalHeartRate, triage.DefaultHeartRate) > 120 ||
		vitals.Get(triage.VitalBPSystolic, triage.DefaultBPSystolic) > 160 {
		investigations = append(investigations, "ECG", "Troponin", "BNP")
	}
	if vitals.Get(triage.VitalSpO2, triage.DefaultSpO2) < 92 {
		investigations = append(investigations, "ABG", "Chest X-ray")
	}
	if vitals.Get(triage.VitalBloodSugar, triage.DefaultBloodSugar) > 200 || history.Has(triage.HistoryDiabetes) {
		investigations = append(investigations, "HbA1c", "Ketones")
	}

	return investigations
}

// RequiredSpecialists identifies consults to page ahead of arrival. An
// emergency physician is always first.
func RequiredSpecialists(vitals triage.Vitals, history triage.History) []string {
	specialists := []string{"Emergency Physician"}

	if vitals.Get(triage.VitalSpO2, triage.DefaultSpO2) < 90 {
		specialists = append(specialists, "Pulmonologist")
	}
	if vitals.Get(triage.VitalHeartRate, triage.DefaultHeartRate) > 120 || history.Has(triage.HistoryCardiac) {
		specialists = append(specialists, "Cardiologist")
	}
	sugar := vitals.Get(triage.VitalBloodSugar, triage.DefaultBloodSugar)
	if sugar > 300 || sugar < 50 {
		specialists = append(specialists, "Endocrinologist")
	}

	return specialists
}

// SummarizeHistory renders the history flags as a short clinical summary.
func SummarizeHistory(history triage.History) string {
	var items []string
	if history.Has(triage.HistoryCardiac) {
		items = append(items, "Known cardiac disease")
	}
	if history.Has(triage.HistoryDiabetes) {
		items = append(items, "Diabetes mellitus")
	}
	if history.Has(triage.HistoryRespiratory) {
		items = append(items, "Chronic respiratory disease")
	}
	if history.Has(triage.HistoryRecentSurgery) {
		items = append(items, "Recent surgery")
	}
	if len(items) == 0 {
		return "No significant history reported"
	}
	return strings.Join(items, ", ")
}
