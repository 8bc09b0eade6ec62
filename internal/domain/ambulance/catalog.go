// Package ambulance selects ambulance types for emergencies and estimates
// travel distance and arrival time.
package ambulance

import "fmt"

// Type identifies an ambulance class.
type Type string

const (
	TypeICU    Type = "ICU"
	TypeOxygen Type = "OXYGEN"
	TypeBasic  Type = "BASIC"
)

// Profile is the static configuration of one ambulance class: the fixed
// equipment and staffing lists plus the billing multiplier. Profiles are
// configuration, never derived at runtime.
type Profile struct {
	Equipment      []string `json:"equipment"`
	Staff          []string `json:"staff"`
	CostMultiplier float64  `json:"cost_multiplier"`
}

var catalog = map[Type]Profile{
	TypeICU: {
		Equipment: []string{
			"Ventilator", "Defibrillator", "Cardiac Monitor",
			"IV Fluids", "Emergency Drugs", "Oxygen (High)", "Suction",
		},
		Staff:          []string{"Paramedic", "ICU Nurse", "Driver"},
		CostMultiplier: 3.0,
	},
	TypeOxygen: {
		Equipment: []string{
			"Oxygen Concentrator", "Pulse Oximeter", "Nebulizer",
			"Cardiac Monitor", "First Aid",
		},
		Staff:          []string{"Paramedic", "Driver"},
		CostMultiplier: 2.0,
	},
	TypeBasic: {
		Equipment: []string{
			"Stretcher", "First Aid", "Oxygen (Basic)",
			"BP Monitor", "Thermometer",
		},
		Staff:          []string{"First Aider", "Driver"},
		CostMultiplier: 1.0,
	},
}

// ProfileFor returns the static profile for an ambulance type. Passing an
// unknown type is a contract violation and panics.
func ProfileFor(t Type) Profile {
	p, ok := catalog[t]
	if !ok {
		panic(fmt.Sprintf("ambulance: unknown type %q", t))
	}
	return p
}
