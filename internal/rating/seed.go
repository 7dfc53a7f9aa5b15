package rating

import (
	id "sglgb/pkg/domain"
)

// SeedBBIs returns the built-in institution groupings rated at completion.
// The sub-indicator ids reference the seeded indicator catalog.
func SeedBBIs() []BBIDefinition {
	return []BBIDefinition{
		{
			ID:              1,
			Name:            "Barangay Disaster Risk Reduction and Management Committee",
			InstitutionCode: "BDRRMC",
			SubIndicators:   []id.IndicatorID{200, 201},
		},
		{
			ID:              2,
			Name:            "Barangay Peace and Order Committee",
			InstitutionCode: "BPOC",
			SubIndicators:   []id.IndicatorID{300, 301},
		},
		{
			ID:              3,
			Name:            "Barangay Council for the Protection of Children",
			InstitutionCode: "BCPC",
			SubIndicators:   []id.IndicatorID{400, 401},
		},
	}
}
