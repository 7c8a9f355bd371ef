package usecase

import (
	"strings"

	"github.com/bovicare/bovicare/internal/core/domain"
)

// DefaultCategory receives queries that match no routing rule.
const DefaultCategory = "mastitis_management"

// categoryRule routes a query to a rubric category. Rules are evaluated in
// order and the first keyword hit wins, so a query matching several rules
// always takes the highest-priority one.
type categoryRule struct {
	keywords    []string
	category    string
	exampleTags []string
}

var categoryRules = []categoryRule{
	{
		keywords:    []string{"mastitis", "dairy"},
		category:    "mastitis_management",
		exampleTags: []string{"theme:dairy_management", "axis:accuracy"},
	},
	{
		keywords:    []string{"outbreak", "disease"},
		category:    "disease_outbreak",
		exampleTags: []string{"theme:biosecurity", "axis:safety"},
	},
	{
		keywords:    []string{"vaccination", "vaccine"},
		category:    "vaccination_schedule",
		exampleTags: []string{"theme:preventive_medicine", "axis:accuracy"},
	},
	{
		keywords:    []string{"emergency", "urgent"},
		category:    "emergency_care",
		exampleTags: []string{"theme:emergency_care", "axis:safety"},
	},
	{
		keywords:    []string{"economic", "cost"},
		category:    "economic_impact",
		exampleTags: []string{"theme:economic_considerations", "axis:completeness"},
	},
}

var defaultExampleTags = []string{"theme:general_veterinary", "axis:accuracy"}

// selectCategory resolves the rubric category for a query by first-match
// keyword scan over the ordered rule table.
func selectCategory(query string) (string, []string) {
	lowered := strings.ToLower(query)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.category, rule.exampleTags
			}
		}
	}
	return DefaultCategory, defaultExampleTags
}

// BuiltinRubrics returns the built-in veterinary rubric categories. Callers
// may overlay categories loaded from a rubric file; the built-ins stay
// untouched between calls.
func BuiltinRubrics() map[string][]domain.RubricItem {
	return map[string][]domain.RubricItem{
		"mastitis_management": {
			{
				Criterion: "Provides accurate information about mastitis symptoms and signs",
				Points:    5,
				Tags:      []string{"axis:accuracy", "theme:dairy_management", "level:example"},
			},
			{
				Criterion: "Recommends immediate veterinary consultation for severe cases",
				Points:    4,
				Tags:      []string{"axis:safety", "theme:emergency_care", "level:example"},
			},
			{
				Criterion: "Mentions proper milking hygiene and biosecurity measures",
				Points:    3,
				Tags:      []string{"axis:completeness", "theme:prevention", "level:example"},
			},
			{
				Criterion: "Is overly technical without practical farm application",
				Points:    -2,
				Tags:      []string{"axis:communication", "theme:communication", "level:example"},
			},
		},
		"disease_outbreak": {
			{
				Criterion: "Emphasizes immediate isolation of affected animals",
				Points:    5,
				Tags:      []string{"axis:safety", "theme:biosecurity", "level:example"},
			},
			{
				Criterion: "Provides accurate information about disease transmission",
				Points:    4,
				Tags:      []string{"axis:accuracy", "theme:disease_management", "level:example"},
			},
			{
				Criterion: "Recommends contacting veterinary authorities when required",
				Points:    3,
				Tags:      []string{"axis:completeness", "theme:regulatory", "level:example"},
			},
			{
				Criterion: "Fails to prioritize animal welfare in recommendations",
				Points:    -3,
				Tags:      []string{"axis:safety", "theme:animal_welfare", "level:example"},
			},
		},
		"vaccination_schedule": {
			{
				Criterion: "Provides age-appropriate vaccination recommendations",
				Points:    4,
				Tags:      []string{"axis:accuracy", "theme:preventive_medicine", "level:example"},
			},
			{
				Criterion: "Mentions importance of veterinary consultation for vaccination plans",
				Points:    3,
				Tags:      []string{"axis:completeness", "theme:professional_guidance", "level:example"},
			},
			{
				Criterion: "Includes information about vaccine storage and handling",
				Points:    2,
				Tags:      []string{"axis:completeness", "theme:practical_management", "level:example"},
			},
		},
		"emergency_care": {
			{
				Criterion: "Identifies situation as veterinary emergency requiring immediate attention",
				Points:    5,
				Tags:      []string{"axis:safety", "theme:emergency_care", "level:example"},
			},
			{
				Criterion: "Provides basic first aid while emphasizing veterinary consultation",
				Points:    4,
				Tags:      []string{"axis:completeness", "theme:emergency_care", "level:example"},
			},
			{
				Criterion: "Mentions animal welfare considerations in emergency response",
				Points:    3,
				Tags:      []string{"axis:safety", "theme:animal_welfare", "level:example"},
			},
			{
				Criterion: "Provides potentially harmful treatment advice without veterinary oversight",
				Points:    -5,
				Tags:      []string{"axis:safety", "theme:treatment_safety", "level:example"},
			},
		},
		"economic_impact": {
			{
				Criterion: "Provides realistic economic impact assessment for farmers",
				Points:    4,
				Tags:      []string{"axis:completeness", "theme:economic_considerations", "level:example"},
			},
			{
				Criterion: "Mentions cost-benefit analysis of prevention vs treatment",
				Points:    3,
				Tags:      []string{"axis:completeness", "theme:economic_considerations", "level:example"},
			},
			{
				Criterion: "Balances economic concerns with animal welfare priorities",
				Points:    3,
				Tags:      []string{"axis:completeness", "theme:animal_welfare", "level:example"},
			},
		},
	}
}
