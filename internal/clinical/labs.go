package clinical

import "fmt"

// labRange bounds one lab test; values outside [Low, High] are critical.
type labRange struct {
	Low  float64
	High float64
	Unit string
}

var criticalRanges = map[string]labRange{
	"hemoglobin": {7.0, 20.0, "g/dL"},
	"wbc":        {2.0, 30.0, "×10³/μL"},
	"platelets":  {50, 1000, "×10³/μL"},
	"sodium":     {120, 160, "mEq/L"},
	"potassium":  {2.5, 6.5, "mEq/L"},
	"creatinine": {0.5, 5.0, "mg/dL"},
	"troponin":   {0, 0.04, "ng/mL"},
}

// labOrder fixes the reporting order so alerts are deterministic.
var labOrder = []string{
	"hemoglobin", "wbc", "platelets", "sodium", "potassium", "creatinine", "troponin",
}

// LabAlert flags one critically low or high lab result.
type LabAlert struct {
	Test           string  `json:"test"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit"`
	Status         string  `json:"status"`
	NormalRange    string  `json:"normal_range"`
	ActionRequired bool    `json:"action_required"`
}

// CheckLabValues scans lab results against the critical ranges table.
// Unknown tests are ignored; results come back in the table's fixed order.
func CheckLabValues(results map[string]float64) []LabAlert {
	var alerts []LabAlert
	for _, test := range labOrder {
		value, ok := results[test]
		if !ok {
			continue
		}
		r := criticalRanges[test]

		var status string
		switch {
		case value < r.Low:
			status = "CRITICALLY LOW"
		case value > r.High:
			status = "CRITICALLY HIGH"
		default:
			continue
		}

		alerts = append(alerts, LabAlert{
			Test:           test,
			Value:          value,
			Unit:           r.Unit,
			Status:         status,
			NormalRange:    fmt.Sprintf("%g-%g %s", r.Low, r.High, r.Unit),
			ActionRequired: true,
		})
	}
	return alerts
}
