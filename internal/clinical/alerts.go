package clinical

import (
	"fmt"

	"github.com/lifeline/go-ems/internal/domain/ambulance"
	"github.com/lifeline/go-ems/internal/domain/hospital"
)

// AlertPriority grades an outgoing alert.
type AlertPriority string

const (
	PriorityMedium   AlertPriority = "MEDIUM"
	PriorityHigh     AlertPriority = "HIGH"
	PriorityCritical AlertPriority = "CRITICAL"
)

// Alert is a delivery-agnostic notification payload. Sending it over SMS,
// push or anything else is a collaborator concern.
type Alert struct {
	Recipient string        `json:"recipient"`
	Priority  AlertPriority `json:"priority"`
	Title     string        `json:"title"`
	Details   []string      `json:"details,omitempty"`
	Actions   []string      `json:"actions"`
}

// BuildCrewAlert assembles the dispatch notification for the ambulance
// crew.
func BuildCrewAlert(severity, etaMinutes int, ambType ambulance.Type) Alert {
	priority := PriorityMedium
	if severity >= 7 {
		priority = PriorityHigh
	}

	profile := ambulance.ProfileFor(ambType)
	return Alert{
		Recipient: "ambulance_team",
		Priority:  priority,
		Title:     fmt.Sprintf("EMERGENCY DISPATCH - Severity %d/10", severity),
		Details: []string{
			fmt.Sprintf("Ambulance: %s", ambType),
			fmt.Sprintf("Required equipment: %v", profile.Equipment),
			fmt.Sprintf("ETA: %d minutes", etaMinutes),
		},
		Actions: []string{"ACCEPT", "REJECT", "REQUEST_BACKUP"},
	}
}

// BuildHospitalAlert assembles the preparation notice for the receiving
// emergency department.
func BuildHospitalAlert(severity, etaMinutes int, bedType hospital.BedType, specialists []string) Alert {
	priority := PriorityHigh
	if severity >= 8 {
		priority = PriorityCritical
	}

	details := []string{
		fmt.Sprintf("Severity: %d/10", severity),
		fmt.Sprintf("Prepare bed type: %s", bedType),
	}
	for _, s := range specialists {
		details = append(details, fmt.Sprintf("Specialist: %s", s))
	}

	return Alert{
		Recipient: "hospital_emergency",
		Priority:  priority,
		Title:     fmt.Sprintf("INCOMING EMERGENCY - ETA %d min", etaMinutes),
		Details:   details,
		Actions:   []string{"PREPARE_BED", "ALERT_DOCTOR", "ARRANGE_BLOOD"},
	}
}
