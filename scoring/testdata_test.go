package scoring

import "ergocare-backend/models"

// lowRiskSurvey is a complete response with minimal workload, no pain and
// full wellbeing.
func lowRiskSurvey() models.SurveyResponse {
	return models.SurveyResponse{
		"consent":                  "Yes",
		"age_group":                "31-40",
		"department":               "Computer Science",
		"designation":              "Associate Professor",
		"experience_years":         "6-10",
		"marital_status":           "Married",
		"teaching_hours":           float64(0),
		"admin_hours":              float64(0),
		"weekend_work":             "Never",
		"role_overload":            float64(1),
		"publish_pressure":         "No",
		"workspace_setup":          "Adjustable Chair and Setup",
		"screen_position":          "At eye level",
		"feet_support":             "Yes",
		"sitting_duration":         "Less than 30 mins",
		"neck_pain":                float64(0),
		"lower_back_pain":          float64(0),
		"wrist_pain":               float64(0),
		"shoulder_pain":            float64(0),
		"leg_pain":                 float64(0),
		"eye_strain":               float64(0),
		"most_discomfort_activity": "Typing",
		"sleep_hours":              "7 - 8 hours",
		"physical_activity":        "Active",
		"hydration":                "More than 2 litres",
		"commute_time":             "Less than 30 mins",
		"who5_q1":                  "All of the time",
		"who5_q2":                  "All of the time",
		"who5_q3":                  "All of the time",
		"who5_q4":                  "All of the time",
		"who5_q5":                  "All of the time",
	}
}

// postureRiskSurvey adds severe neck and back pain and a poor workstation
func postureRiskSurvey() models.SurveyResponse {
	s := lowRiskSurvey()
	s["neck_pain"] = float64(5)
	s["lower_back_pain"] = float64(5)
	s["sitting_duration"] = "More than 2 hours"
	s["workspace_setup"] = "Couch / Bed"
	return s
}
