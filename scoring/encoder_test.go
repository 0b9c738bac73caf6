package scoring

import (
	"encoding/json"
	"errors"
	"testing"
)

// --- Encode ---

func TestEncode_LowRiskSurvey(t *testing.T) {
	e, err := Encode(lowRiskSurvey())
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if e.RoleOverload != 1 {
		t.Errorf("RoleOverload = %d, want 1", e.RoleOverload)
	}
	if e.SleepHours != 2 {
		t.Errorf("SleepHours = %d, want 2", e.SleepHours)
	}
	if e.Hydration != 2 {
		t.Errorf("Hydration = %d, want 2", e.Hydration)
	}
	if e.PhysicalActivity != 3 {
		t.Errorf("PhysicalActivity = %d, want 3", e.PhysicalActivity)
	}
	if got := e.WHO5Total(); got != 25 {
		t.Errorf("WHO5Total() = %d, want 25", got)
	}
	if e.Demographics.Designation != "Associate Professor" {
		t.Errorf("Designation = %q, want Associate Professor", e.Demographics.Designation)
	}
}

func TestEncode_VocabularyCodes(t *testing.T) {
	s := lowRiskSurvey()
	s["workspace_setup"] = "Couch / Bed"
	s["feet_support"] = "Only when wearing footwear"
	s["screen_position"] = "Above eye level"
	s["weekend_work"] = "Always"
	s["who5_q3"] = "At no time"
	s["most_discomfort_activity"] = "Manual grading / writing"

	e, err := Encode(s)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	checks := []struct {
		name string
		got  int
		want int
	}{
		{"WorkspaceSetup", e.WorkspaceSetup, 4},
		{"FeetSupport", e.FeetSupport, 1},
		{"ScreenPosition", e.ScreenPosition, 2},
		{"WeekendWork", e.WeekendWork, 4},
		{"WHO5[2]", e.WHO5[2], 0},
		{"DiscomfortActivity", e.DiscomfortActivity, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestEncode_AcceptsNumericForms(t *testing.T) {
	s := lowRiskSurvey()
	s["neck_pain"] = "3"
	s["wrist_pain"] = json.Number("2")
	s["teaching_hours"] = 12
	s["admin_hours"] = float64(8)

	e, err := Encode(s)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if e.NeckPain != 3 || e.WristPain != 2 || e.TeachingHours != 12 || e.AdminHours != 8 {
		t.Errorf("numeric fields = %d/%d/%d/%d, want 3/2/12/8",
			e.NeckPain, e.WristPain, e.TeachingHours, e.AdminHours)
	}
}

func TestEncode_MissingField(t *testing.T) {
	s := lowRiskSurvey()
	delete(s, "sitting_duration")

	_, err := Encode(s)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("Encode() error = %v, want ErrMissingField", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("error should also match ErrValidation")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "sitting_duration" {
		t.Errorf("ValidationError field = %v, want sitting_duration", ve)
	}
}

func TestEncode_UnknownCategory(t *testing.T) {
	s := lowRiskSurvey()
	s["workspace_setup"] = "Beanbag"

	_, err := Encode(s)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("Encode() error = %v, want ErrUnknownCategory", err)
	}
}

func TestEncode_CategoricalMustBeText(t *testing.T) {
	s := lowRiskSurvey()
	s["sleep_hours"] = float64(7)

	_, err := Encode(s)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("Encode() error = %v, want ErrUnknownCategory", err)
	}
}

func TestEncode_OutOfRange(t *testing.T) {
	cases := map[string]interface{}{
		"neck_pain":      float64(6),
		"eye_strain":     float64(-1),
		"role_overload":  float64(0),
		"teaching_hours": float64(DefaultMaxHours + 1),
		"leg_pain":       3.5,
		"wrist_pain":     "a lot",
	}
	for field, value := range cases {
		s := lowRiskSurvey()
		s[field] = value
		_, err := Encode(s)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Encode(%s=%v) error = %v, want ErrOutOfRange", field, value, err)
		}
	}
}

func TestEncode_ReportsEveryField(t *testing.T) {
	s := lowRiskSurvey()
	delete(s, "who5_q1")
	s["hydration"] = "Lots"
	s["shoulder_pain"] = float64(9)

	_, err := Encode(s)
	fields := FieldErrors(err)
	if len(fields) != 3 {
		t.Fatalf("FieldErrors() len = %d, want 3 (%v)", len(fields), err)
	}
	seen := map[string]bool{}
	for _, f := range fields {
		seen[f.Field] = true
	}
	for _, want := range []string{"who5_q1", "hydration", "shoulder_pain"} {
		if !seen[want] {
			t.Errorf("missing field error for %s", want)
		}
	}
}

func TestEncode_DemographicsOptionalButChecked(t *testing.T) {
	s := lowRiskSurvey()
	delete(s, "age_group")
	delete(s, "department")
	if _, err := Encode(s); err != nil {
		t.Fatalf("Encode() without demographics error: %v", err)
	}

	s["age_group"] = "19"
	if _, err := Encode(s); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Encode() bad age_group error = %v, want ErrUnknownCategory", err)
	}
}

func TestNewEncoder_MaxHours(t *testing.T) {
	s := lowRiskSurvey()
	s["admin_hours"] = float64(30)

	if _, err := NewEncoder(24).Encode(s); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("NewEncoder(24) error = %v, want ErrOutOfRange", err)
	}
	if _, err := NewEncoder(0).Encode(s); err != nil {
		t.Errorf("NewEncoder(0) should fall back to DefaultMaxHours: %v", err)
	}
}
