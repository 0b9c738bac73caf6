package models

// SurveyResponse is one raw survey submission keyed by field name.
// Values arrive as JSON strings or numbers.
type SurveyResponse map[string]interface{}

// EncodedResponse holds the ordinal codes for every scored survey field
type EncodedResponse struct {
	// Workload
	TeachingHours   int `json:"teaching_hours"`
	AdminHours      int `json:"admin_hours"`
	WeekendWork     int `json:"weekend_work"`     // 0-4
	RoleOverload    int `json:"role_overload"`    // 1-5
	PublishPressure int `json:"publish_pressure"` // 0-2

	// Workstation
	WorkspaceSetup  int `json:"workspace_setup"`  // 0-4
	ScreenPosition  int `json:"screen_position"`  // 0-2
	FeetSupport     int `json:"feet_support"`     // 0-3
	SittingDuration int `json:"sitting_duration"` // 0-3

	// Pain scales, 0-5
	NeckPain      int `json:"neck_pain"`
	LowerBackPain int `json:"lower_back_pain"`
	WristPain     int `json:"wrist_pain"`
	ShoulderPain  int `json:"shoulder_pain"`
	LegPain       int `json:"leg_pain"`
	EyeStrain     int `json:"eye_strain"`

	DiscomfortActivity int `json:"most_discomfort_activity"` // 0-2

	// Lifestyle
	SleepHours       int `json:"sleep_hours"`       // 0-3
	PhysicalActivity int `json:"physical_activity"` // 0-3
	Hydration        int `json:"hydration"`         // 0-2
	CommuteTime      int `json:"commute_time"`      // 0-3

	// WHO-5 items, 0-5 each
	WHO5 [5]int `json:"who5"`

	Demographics Demographics `json:"demographics"`
}

// WHO5Total is the raw WHO-5 score in [0,25]
func (e EncodedResponse) WHO5Total() int {
	total := 0
	for _, v := range e.WHO5 {
		total += v
	}
	return total
}

// Demographics are carried through unscored
type Demographics struct {
	Consent         string `json:"consent,omitempty"`
	AgeGroup        string `json:"age_group,omitempty"`
	Department      string `json:"department,omitempty"`
	Designation     string `json:"designation,omitempty"`
	ExperienceYears string `json:"experience_years,omitempty"`
	MaritalStatus   string `json:"marital_status,omitempty"`
}
