package rules

import (
	"strings"

	"github.com/medsafe/medsafe-api/entities"
)

// drugClass groups medications sharing an adverse-reaction profile. The
// severity on each reaction reflects frequency-weighted clinical risk, not
// worst-case gravity: rare catastrophic reactions carry a lower grade than
// common serious ones, with the gravity spelled out in the description.
type drugClass struct {
	name      string
	members   []string
	reactions []entities.AdverseReaction
}

var drugClasses = []drugClass{
	{
		name:    "NSAID",
		members: []string{"ibuprofen", "acetylsalicylic acid", "diclofenac", "naproxen"},
		reactions: []entities.AdverseReaction{
			{
				Reaction:    "Gastrointestinal irritation",
				Description: "Epigastric pain, nausea, heartburn, possible peptic ulcer",
				Frequency:   "Very common (>10%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"prolonged use", "history of ulcers", "concomitant anticoagulant use"},
			},
			{
				Reaction:    "Renal dysfunction",
				Description: "Reduced glomerular filtration, fluid retention",
				Frequency:   "Common (1-10%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"elderly", "dehydration", "pre-existing renal impairment"},
			},
			{
				Reaction:    "Increased blood pressure",
				Description: "Blood pressure elevation, peripheral edema",
				Frequency:   "Common (1-10%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"hypertension", "heart failure"},
			},
		},
	},
	{
		name:    "Anticoagulant",
		members: []string{"warfarin"},
		reactions: []entities.AdverseReaction{
			{
				Reaction:    "Bleeding",
				Description: "Hemorrhage (nasal, gingival, hematomas, blood in urine or stool)",
				Frequency:   "Common (1-10%)",
				Severity:    entities.SeverityHigh,
				RiskFactors: []string{"elevated INR", "trauma", "recent surgery", "age over 65"},
			},
			{
				Reaction:    "Skin necrosis",
				Description: "Necrosis of skin and subcutaneous tissue (rare)",
				Frequency:   "Rare (<0.1%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"protein C/S deficiency", "high initial doses"},
			},
		},
	},
	{
		name:    "Biguanide",
		members: []string{"metformin"},
		reactions: []entities.AdverseReaction{
			{
				Reaction:    "Gastrointestinal disturbance",
				Description: "Diarrhea, nausea, vomiting, flatulence, metallic taste",
				Frequency:   "Very common (>10%)",
				Severity:    entities.SeverityLow,
				RiskFactors: []string{"treatment start", "high doses"},
			},
			{
				Reaction:    "Lactic acidosis",
				Description: "Lactic acid accumulation; a medical emergency when it occurs",
				Frequency:   "Very rare (<0.01%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"renal impairment", "hepatic impairment", "dehydration", "sepsis"},
			},
			{
				Reaction:    "Vitamin B12 deficiency",
				Description: "Reduced B12 absorption with prolonged use",
				Frequency:   "Common (1-10%)",
				Severity:    entities.SeverityLow,
				RiskFactors: []string{"prolonged use over 4 years"},
			},
		},
	},
	{
		name:    "Statin",
		members: []string{"atorvastatin", "simvastatin", "rosuvastatin"},
		reactions: []entities.AdverseReaction{
			{
				Reaction:    "Myalgia",
				Description: "Muscle pain, weakness, cramps",
				Frequency:   "Common (1-10%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"high doses", "drug interactions", "elderly"},
			},
			{
				Reaction:    "Rhabdomyolysis",
				Description: "Severe muscle breakdown with myoglobin release",
				Frequency:   "Rare (<0.1%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"high doses", "fibrate interaction", "hypothyroidism"},
			},
			{
				Reaction:    "Elevated liver enzymes",
				Description: "ALT/AST elevation",
				Frequency:   "Common (1-10%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"pre-existing liver disease", "concomitant alcohol use"},
			},
		},
	},
	{
		name:    "SSRI",
		members: []string{"fluoxetine", "sertraline"},
		reactions: []entities.AdverseReaction{
			{
				Reaction:    "Serotonin syndrome",
				Description: "Agitation, confusion, tachycardia, hyperthermia, tremor",
				Frequency:   "Rare (<0.1%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"concomitant serotonergic drugs", "tramadol", "MAO inhibitors"},
			},
			{
				Reaction:    "Sexual dysfunction",
				Description: "Decreased libido, erectile dysfunction, anorgasmia",
				Frequency:   "Very common (>10%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"high doses", "prolonged use"},
			},
			{
				Reaction:    "Sleep disturbance",
				Description: "Insomnia or somnolence, altered sleep pattern",
				Frequency:   "Common (1-10%)",
				Severity:    entities.SeverityLow,
				RiskFactors: []string{"treatment start"},
			},
		},
	},
	{
		name:    "Benzodiazepine",
		members: []string{"diazepam", "clonazepam", "alprazolam"},
		reactions: []entities.AdverseReaction{
			{
				Reaction:    "Sedation and somnolence",
				Description: "Daytime drowsiness, reduced reflexes, fatigue",
				Frequency:   "Very common (>10%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"elderly", "high doses", "alcohol use"},
			},
			{
				Reaction:    "Dependence and withdrawal",
				Description: "Physical and psychological dependence, withdrawal syndrome",
				Frequency:   "Common (1-10%)",
				Severity:    entities.SeverityHigh,
				RiskFactors: []string{"prolonged use over 4 weeks", "high doses", "history of dependence"},
			},
			{
				Reaction:    "Cognitive impairment",
				Description: "Reduced concentration, anterograde amnesia",
				Frequency:   "Common (1-10%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"elderly", "high doses"},
			},
		},
	},
	{
		name:    "Analgesic",
		members: []string{"acetaminophen"},
		reactions: []entities.AdverseReaction{
			{
				Reaction:    "Hepatotoxicity",
				Description: "Liver injury at doses above 4g/day or in overdose",
				Frequency:   "Rare at therapeutic doses",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"doses above 4g/day", "alcohol use", "liver disease", "fasting"},
			},
			{
				Reaction:    "Allergic reaction",
				Description: "Skin rash, urticaria (rare)",
				Frequency:   "Rare (<0.1%)",
				Severity:    entities.SeverityLow,
				RiskFactors: []string{"history of allergies"},
			},
		},
	},
	{
		name:    "Fluoroquinolone",
		members: []string{"levofloxacin", "ciprofloxacin", "norfloxacin"},
		reactions: []entities.AdverseReaction{
			{
				Reaction:    "Tendinitis and tendon rupture",
				Description: "Inflammation and possible rupture of the Achilles tendon",
				Frequency:   "Uncommon (0.1-1%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"age over 60", "corticosteroids", "intense physical activity"},
			},
			{
				Reaction:    "Photosensitivity",
				Description: "Increased sensitivity to sunlight",
				Frequency:   "Common (1-10%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"sun exposure"},
			},
			{
				Reaction:    "QT prolongation",
				Description: "Risk of cardiac arrhythmia",
				Frequency:   "Rare (<0.1%)",
				Severity:    entities.SeverityMedium,
				RiskFactors: []string{"heart disease", "other QT-prolonging drugs", "electrolyte disturbance"},
			},
		},
	},
}

// classify returns the pharmacological class of a canonical medication name,
// or nil when unmapped.
func classify(canonicalMed string) *drugClass {
	for i := range drugClasses {
		for _, member := range drugClasses[i].members {
			if strings.Contains(canonicalMed, member) {
				return &drugClasses[i]
			}
		}
	}
	return nil
}

// ClassOf returns the pharmacological class name for a canonical medication,
// or the medication itself when no class is mapped.
func ClassOf(canonicalMed string) string {
	if c := classify(canonicalMed); c != nil {
		return c.name
	}
	return canonicalMed
}

// AdverseReactionsFor returns the known adverse reactions of the
// medication's class. Unmapped medications get a single generic advisory so
// the report is never silent about reactions.
func AdverseReactionsFor(canonicalMed string) []entities.AdverseReaction {
	if c := classify(canonicalMed); c != nil {
		out := make([]entities.AdverseReaction, len(c.reactions))
		copy(out, c.reactions)
		return out
	}

	return []entities.AdverseReaction{{
		Reaction:    "General adverse reactions",
		Description: "Consult the package insert for the complete list of reactions specific to this medication",
		Frequency:   "Variable",
		Severity:    entities.SeverityLow,
		RiskFactors: []string{"individual sensitivity", "drug interactions"},
	}}
}
