package store

import (
	"sglgb/internal/indicator/models"
	id "sglgb/pkg/domain"
)

// Governance area ids for the 2024 assessment form.
const (
	AreaFinancialAdministration id.AreaID = 1
	AreaDisasterPreparedness    id.AreaID = 2
	AreaSafetyPeaceAndOrder     id.AreaID = 3
	AreaSocialProtection        id.AreaID = 4
	AreaBusinessFriendliness    id.AreaID = 5
	AreaEnvironmentalManagement id.AreaID = 6
)

// Seed returns the built-in indicator catalog. Real deployments replace this
// with the form issued for the cycle; the shapes here cover every completeness
// rule the engine supports.
func Seed() []*models.Definition {
	evidence := func(fieldID id.FieldSpecID, label string) models.FieldSpec {
		return models.FieldSpec{ID: fieldID, Label: label, ItemType: models.ItemEvidence, Required: true}
	}
	grouped := func(fieldID id.FieldSpecID, label, group string) models.FieldSpec {
		return models.FieldSpec{ID: fieldID, Label: label, ItemType: models.ItemEvidence, Group: group}
	}
	parent := func(indicatorID id.IndicatorID) *id.IndicatorID { return &indicatorID }

	return []*models.Definition{
		{
			ID: 100, Code: "1.1", AreaID: AreaFinancialAdministration,
			Rule: models.RuleAllItemsRequired,
			Fields: []models.FieldSpec{
				{ID: 1001, Label: "Approved barangay budget", ItemType: models.ItemSeparator},
				evidence(1002, "Appropriation ordinance"),
				{ID: 1003, Label: "Date of approval", ItemType: models.ItemDate, Required: true},
			},
		},
		{
			ID: 101, Code: "1.1.1", ParentID: parent(100), AreaID: AreaFinancialAdministration,
			Rule: models.RuleAllItemsRequired,
			Fields: []models.FieldSpec{
				evidence(1011, "Statement of receipts and expenditures"),
				{ID: 1012, Label: "Number of postings", ItemType: models.ItemCount, Required: true},
			},
		},
		{
			ID: 102, Code: "1.2", AreaID: AreaFinancialAdministration,
			Rule: models.RuleAnyItemRequired,
			Fields: []models.FieldSpec{
				evidence(1021, "Full disclosure board photo"),
				evidence(1022, "Website posting screenshot"),
			},
		},
		{
			ID: 200, Code: "2.1", AreaID: AreaDisasterPreparedness,
			Rule: models.RuleOrLogicAtLeastOneGroup,
			Fields: []models.FieldSpec{
				{ID: 2001, Label: "Option A", ItemType: models.ItemInfo},
				grouped(2002, "BDRRM plan", "a"),
				grouped(2003, "BDRRM committee resolution", "a"),
				{ID: 2004, Label: "Option B", ItemType: models.ItemInfo},
				grouped(2005, "Integrated city DRRM plan excerpt", "b"),
			},
		},
		{
			ID: 201, Code: "2.2", ParentID: parent(200), AreaID: AreaDisasterPreparedness,
			Rule: models.RuleSharedPlusOrLogic,
			Fields: []models.FieldSpec{
				grouped(2011, "Evacuation plan", models.SharedGroup),
				grouped(2012, "Owned evacuation center photo", "owned"),
				grouped(2013, "MOA for designated center", "designated"),
				grouped(2014, "Designation resolution", "designated"),
			},
		},
		{
			ID: 300, Code: "3.1", AreaID: AreaSafetyPeaceAndOrder,
			Rule: models.RuleAnyOptionGroupRequired,
			Fields: []models.FieldSpec{
				grouped(3001, "Lupon appointment papers", "appointed"),
				grouped(3002, "Oath of office", "appointed"),
				grouped(3003, "Minutes of lupon constitution", "appointed"),
				grouped(3004, "Certification of continuing lupon", "continuing"),
			},
		},
		{
			ID: 301, Code: "3.2", AreaID: AreaSafetyPeaceAndOrder,
			Rule: models.RuleAllItemsRequired,
			Fields: []models.FieldSpec{
				evidence(3011, "BPOC organization order"),
				evidence(3012, "BPOC plan"),
			},
		},
		{
			ID: 400, Code: "4.1", AreaID: AreaSocialProtection,
			Rule: models.RuleAllItemsRequired,
			Fields: []models.FieldSpec{
				evidence(4001, "BCPC organization order"),
				{ID: 4002, Label: "BCPC budget allocation", ItemType: models.ItemValue, Required: true},
			},
		},
		{
			// Profiling indicators collect context only and never count toward
			// the compliance classification.
			ID: 401, Code: "4.2", AreaID: AreaSocialProtection,
			Rule: models.RuleAllItemsRequired, Profiling: true,
			Fields: []models.FieldSpec{
				{ID: 4011, Label: "Number of registered senior citizens", ItemType: models.ItemCount, Required: true},
			},
		},
		{
			ID: 500, Code: "5.1", AreaID: AreaBusinessFriendliness,
			Rule: models.RuleAnyItemRequired,
			Fields: []models.FieldSpec{
				evidence(5001, "Barangay clearance fee schedule"),
				evidence(5002, "Citizen's charter posting"),
			},
		},
		{
			ID: 600, Code: "6.1", AreaID: AreaEnvironmentalManagement,
			Rule: models.RuleAllItemsRequired,
			Fields: []models.FieldSpec{
				evidence(6001, "Solid waste management committee order"),
				evidence(6002, "Segregation scheme documentation"),
			},
		},
	}
}
