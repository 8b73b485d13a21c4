package prescription

// Option catalogs the form views bind to. Free-text entry is still allowed
// everywhere; these are suggestions, not enumerations.

var ChronicDiseaseOptions = []string{
	"Hypertension",
	"Diabetes",
	"Heart Failure",
	"Type 2 DM",
	"Dyslipidemia",
	"Smoking",
	"Family History",
	"Asthma",
	"Migraine",
	"Arthritis",
}

var VitalOptions = []string{
	"Blood Pressure",
	"Heart Rate",
	"Pulse Rate",
	"Respiratory Rate",
	"Pulse Pressure",
	"Oxygen Saturation",
	"Pulse Rhythm",
	"SpO2",
	"Blood Glucose Levels",
	"Height",
	"Weight",
	"GCS",
	"Temperature",
	"Capnography",
	"Skin Color",
}

var MedicineTypes = []string{
	"Tablet",
	"Capsule",
	"Syrup",
	"Injection",
	"Cream",
	"Ointment",
	"Drops",
	"Suspension",
	"Inhaler",
	"Powder",
	"Gel",
	"Solution",
	"Spray",
}

var DoseFrequencies = []string{
	"1-1-1", "1-1-0", "1-0-1", "1-0-0",
	"0-1-1", "0-1-0", "0-0-1",
	"4-T",
	"Q-1-H", "Q-2-H", "Q-3-H", "Q-4-H", "Q-6-H", "Q-8-H", "Q-12-H",
	"SOS",
}

var DoseUnits = []string{"mg", "ml", "g", "units", "puffs"}

var TimingOptions = []string{
	"After Meal", "Before Meal", "Before Breakfast", "Before Dinner",
	"Before Lunch", "After Lunch", "Bedtime", "Fasting",
}

var BloodGroupOptions = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

var GenderOptions = []string{"Male", "Female", "Other"}

// Catalogs bundles every option list for the catalogs endpoint.
type Catalogs struct {
	ChronicDiseases []string `json:"chronic_diseases"`
	Vitals          []string `json:"vitals"`
	MedicineTypes   []string `json:"medicine_types"`
	DoseFrequencies []string `json:"dose_frequencies"`
	DoseUnits       []string `json:"dose_units"`
	TimingOptions   []string `json:"timing_options"`
	BloodGroups     []string `json:"blood_groups"`
	Genders         []string `json:"genders"`
}

func AllCatalogs() Catalogs {
	return Catalogs{
		ChronicDiseases: ChronicDiseaseOptions,
		Vitals:          VitalOptions,
		MedicineTypes:   MedicineTypes,
		DoseFrequencies: DoseFrequencies,
		DoseUnits:       DoseUnits,
		TimingOptions:   TimingOptions,
		BloodGroups:     BloodGroupOptions,
		Genders:         GenderOptions,
	}
}
