// Package scoring turns a raw survey response into risk indices and a
// categorical risk interpretation. Everything here is pure and deterministic.
package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"ergocare-backend/models"
)

// Vocabulary maps a categorical answer to its ordinal code
type Vocabulary map[string]int

var (
	WeekendWorkVocab = Vocabulary{
		"Never": 0, "Rarely": 1, "Sometimes": 2, "Often": 3, "Always": 4,
	}
	DurationVocab = Vocabulary{
		"Less than 30 mins": 0, "30 - 60 mins": 1, "1 - 2 hours": 2, "More than 2 hours": 3,
	}
	SleepVocab = Vocabulary{
		"Less than 5 hours": 0, "5 - 6 hours": 1, "7 - 8 hours": 2, "More than 8 hours": 3,
	}
	PhysicalActivityVocab = Vocabulary{
		"Sedentary": 0, "Light Activity (Walking)": 1, "Moderate Activity": 2, "Active": 3,
	}
	PublishPressureVocab = Vocabulary{
		"No": 0, "Somewhat": 1, "Yes": 2,
	}
	WorkspaceSetupVocab = Vocabulary{
		"Adjustable Chair and Setup": 0,
		"Fixed Chair and Desk":       1,
		"Standing Desk":              2,
		"Laboratory Stool":           3,
		"Couch / Bed":                4,
	}
	ScreenPositionVocab = Vocabulary{
		"At eye level": 0, "Below eye level": 1, "Above eye level": 2,
	}
	FeetSupportVocab = Vocabulary{
		"Yes": 0, "Only when wearing footwear": 1, "No": 2, "Feet dangle": 3,
	}
	DiscomfortActivityVocab = Vocabulary{
		"Typing": 0, "Manual grading / writing": 1, "Standing": 2,
	}
	HydrationVocab = Vocabulary{
		"Less than 1 litre": 0, "1 - 2 litres": 1, "More than 2 litres": 2,
	}
	WHO5Vocab = Vocabulary{
		"All of the time":            5,
		"Most of the time":           4,
		"More than half of the time": 3,
		"Less than half of the time": 2,
		"Some of the time":           1,
		"At no time":                 0,
	}
)

// Demographic vocabularies. These fields are optional and unscored.
var (
	AgeGroups       = []string{"20-30", "31-40", "41-50", "50+"}
	Designations    = []string{"Assistant Professor", "Associate Professor", "Professor", "Lab Instructor"}
	ExperienceYears = []string{"0-5", "6-10", "11-15", "15+"}
	MaritalStatuses = []string{"Single", "Married", "Married with children"}
	ConsentAnswers  = []string{"Yes", "No"}
)

// DefaultMaxHours bounds each weekly hour count
const DefaultMaxHours = 80

type categoricalField struct {
	name  string
	vocab Vocabulary
	set   func(*models.EncodedResponse, int)
}

type numericField struct {
	name     string
	min, max int
	set      func(*models.EncodedResponse, int)
}

var categoricalFields = []categoricalField{
	{"weekend_work", WeekendWorkVocab, func(e *models.EncodedResponse, v int) { e.WeekendWork = v }},
	{"publish_pressure", PublishPressureVocab, func(e *models.EncodedResponse, v int) { e.PublishPressure = v }},
	{"workspace_setup", WorkspaceSetupVocab, func(e *models.EncodedResponse, v int) { e.WorkspaceSetup = v }},
	{"screen_position", ScreenPositionVocab, func(e *models.EncodedResponse, v int) { e.ScreenPosition = v }},
	{"feet_support", FeetSupportVocab, func(e *models.EncodedResponse, v int) { e.FeetSupport = v }},
	{"sitting_duration", DurationVocab, func(e *models.EncodedResponse, v int) { e.SittingDuration = v }},
	{"most_discomfort_activity", DiscomfortActivityVocab, func(e *models.EncodedResponse, v int) { e.DiscomfortActivity = v }},
	{"sleep_hours", SleepVocab, func(e *models.EncodedResponse, v int) { e.SleepHours = v }},
	{"physical_activity", PhysicalActivityVocab, func(e *models.EncodedResponse, v int) { e.PhysicalActivity = v }},
	{"hydration", HydrationVocab, func(e *models.EncodedResponse, v int) { e.Hydration = v }},
	{"commute_time", DurationVocab, func(e *models.EncodedResponse, v int) { e.CommuteTime = v }},
	{"who5_q1", WHO5Vocab, func(e *models.EncodedResponse, v int) { e.WHO5[0] = v }},
	{"who5_q2", WHO5Vocab, func(e *models.EncodedResponse, v int) { e.WHO5[1] = v }},
	{"who5_q3", WHO5Vocab, func(e *models.EncodedResponse, v int) { e.WHO5[2] = v }},
	{"who5_q4", WHO5Vocab, func(e *models.EncodedResponse, v int) { e.WHO5[3] = v }},
	{"who5_q5", WHO5Vocab, func(e *models.EncodedResponse, v int) { e.WHO5[4] = v }},
}

func numericFields(maxHours int) []numericField {
	return []numericField{
		{"teaching_hours", 0, maxHours, func(e *models.EncodedResponse, v int) { e.TeachingHours = v }},
		{"admin_hours", 0, maxHours, func(e *models.EncodedResponse, v int) { e.AdminHours = v }},
		{"role_overload", 1, 5, func(e *models.EncodedResponse, v int) { e.RoleOverload = v }},
		{"neck_pain", 0, 5, func(e *models.EncodedResponse, v int) { e.NeckPain = v }},
		{"lower_back_pain", 0, 5, func(e *models.EncodedResponse, v int) { e.LowerBackPain = v }},
		{"wrist_pain", 0, 5, func(e *models.EncodedResponse, v int) { e.WristPain = v }},
		{"shoulder_pain", 0, 5, func(e *models.EncodedResponse, v int) { e.ShoulderPain = v }},
		{"leg_pain", 0, 5, func(e *models.EncodedResponse, v int) { e.LegPain = v }},
		{"eye_strain", 0, 5, func(e *models.EncodedResponse, v int) { e.EyeStrain = v }},
	}
}

// Encoder maps raw survey answers to ordinal codes
type Encoder struct {
	maxHours int
}

// NewEncoder creates an encoder. A non-positive maxHours uses DefaultMaxHours.
func NewEncoder(maxHours int) *Encoder {
	if maxHours <= 0 {
		maxHours = DefaultMaxHours
	}
	return &Encoder{maxHours: maxHours}
}

// Encode encodes raw with the default hour bound
func Encode(raw models.SurveyResponse) (models.EncodedResponse, error) {
	return NewEncoder(DefaultMaxHours).Encode(raw)
}

// Encode validates and encodes every required field. All field failures
// are reported together; no partial result is returned.
func (enc *Encoder) Encode(raw models.SurveyResponse) (models.EncodedResponse, error) {
	var out models.EncodedResponse
	var errs []error

	for _, f := range categoricalFields {
		v, ok := raw[f.name]
		if !ok || v == nil {
			errs = append(errs, &ValidationError{Field: f.name, Kind: ErrMissingField})
			continue
		}
		s, isString := v.(string)
		if !isString {
			errs = append(errs, &ValidationError{Field: f.name, Value: v, Kind: ErrUnknownCategory, Detail: "expected a text answer"})
			continue
		}
		code, known := f.vocab[strings.TrimSpace(s)]
		if !known {
			errs = append(errs, &ValidationError{Field: f.name, Value: s, Kind: ErrUnknownCategory})
			continue
		}
		f.set(&out, code)
	}

	for _, f := range numericFields(enc.maxHours) {
		v, ok := raw[f.name]
		if !ok || v == nil {
			errs = append(errs, &ValidationError{Field: f.name, Kind: ErrMissingField})
			continue
		}
		n, err := toInt(v)
		if err != nil {
			errs = append(errs, &ValidationError{Field: f.name, Value: v, Kind: ErrOutOfRange, Detail: err.Error()})
			continue
		}
		if n < f.min || n > f.max {
			errs = append(errs, &ValidationError{
				Field:  f.name,
				Value:  n,
				Kind:   ErrOutOfRange,
				Detail: fmt.Sprintf("expected %d-%d", f.min, f.max),
			})
			continue
		}
		f.set(&out, n)
	}

	demo, demoErrs := encodeDemographics(raw)
	errs = append(errs, demoErrs...)
	out.Demographics = demo

	if len(errs) > 0 {
		return models.EncodedResponse{}, errors.Join(errs...)
	}
	return out, nil
}

func encodeDemographics(raw models.SurveyResponse) (models.Demographics, []error) {
	var d models.Demographics
	var errs []error

	check := func(field string, allowed []string, dst *string) {
		v, ok := raw[field]
		if !ok || v == nil {
			return
		}
		s, isString := v.(string)
		if !isString {
			errs = append(errs, &ValidationError{Field: field, Value: v, Kind: ErrUnknownCategory, Detail: "expected a text answer"})
			return
		}
		s = strings.TrimSpace(s)
		if allowed != nil && !contains(allowed, s) {
			errs = append(errs, &ValidationError{Field: field, Value: s, Kind: ErrUnknownCategory})
			return
		}
		*dst = s
	}

	check("consent", ConsentAnswers, &d.Consent)
	check("age_group", AgeGroups, &d.AgeGroup)
	check("department", nil, &d.Department)
	check("designation", Designations, &d.Designation)
	check("experience_years", ExperienceYears, &d.ExperienceYears)
	check("marital_status", MaritalStatuses, &d.MaritalStatus)
	return d, errs
}

// toInt accepts integral JSON numbers and numeric strings
func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number")
		}
		return floatToInt(f)
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number")
		}
		return floatToInt(f)
	default:
		return 0, fmt.Errorf("not a number")
	}
}

func floatToInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer")
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
