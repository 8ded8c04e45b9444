package classifier

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Category
	}{
		{name: "coding keyword", text: "fix this function", want: CategoryCoding},
		{name: "coding beats explanation", text: "Explain why my loop has a bug", want: CategoryCoding},
		{name: "upper case coding", text: "DEBUG THIS", want: CategoryCoding},
		{name: "explanation", text: "explain recursion", want: CategoryExplanation},
		{name: "multi word explanation", text: "What is the difference between TCP and UDP?", want: CategoryExplanation},
		{name: "general", text: "good morning!", want: CategoryGeneral},
		{name: "empty", text: "", want: CategoryGeneral},
		{name: "whitespace", text: "   ", want: CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Classify(tt.text)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
			}
			if reason == "" {
				t.Errorf("Classify(%q) returned empty reason", tt.text)
			}
		})
	}
}

func TestClassify_ReasonsDifferPerCategory(t *testing.T) {
	_, coding := Classify("write code")
	_, explain := Classify("define entropy")
	_, general := Classify("hello")

	if coding == explain || explain == general || coding == general {
		t.Errorf("reasons are not distinct: %q, %q, %q", coding, explain, general)
	}
}

func TestMatchFirst_CustomTable(t *testing.T) {
	rules := []Rule[int]{
		{Tag: 1, Keywords: []string{"alpha"}, Reason: "one"},
		{Tag: 2, Keywords: []string{"beta", "alpha"}, Reason: "two"},
	}

	tag, reason := MatchFirst("BETA and Alpha", rules, 0, "none")
	if tag != 1 || reason != "one" {
		t.Errorf("MatchFirst() = (%d, %q), want (1, \"one\")", tag, reason)
	}

	tag, reason = MatchFirst("gamma", rules, 0, "none")
	if tag != 0 || reason != "none" {
		t.Errorf("MatchFirst() = (%d, %q), want (0, \"none\")", tag, reason)
	}

	tag, _ = MatchFirst("anything", nil, 9, "")
	if tag != 9 {
		t.Errorf("MatchFirst() with empty table = %d, want 9", tag)
	}
}

func TestDetectMood(t *testing.T) {
	tests := []struct {
		text string
		want Mood
	}{
		{"I'm so stressed about finals", MoodStressed},
		{"stressed but also excited", MoodStressed},
		{"I feel great today", MoodHappy},
		{"feeling lonely", MoodSad},
		{"what should I cook", MoodNeutral},
	}

	for _, tt := range tests {
		if got := DetectMood(tt.text); got != tt.want {
			t.Errorf("DetectMood(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestFocusAreas(t *testing.T) {
	got := FocusAreas(CategoryStudent, "My exam is tomorrow and the homework deadline too")
	want := []string{"exam preparation", "homework help", "time management"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FocusAreas(student) = %v, want %v", got, want)
	}

	got = FocusAreas(CategoryProfessional, "my boss wants a promotion review")
	want = []string{"career growth", "workplace relationships"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FocusAreas(professional) = %v, want %v", got, want)
	}

	if got := FocusAreas(CategoryZen, "exam"); got != nil {
		t.Errorf("FocusAreas(zen) = %v, want nil", got)
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, ok := ParseCategory(string(c))
		if !ok || got != c {
			t.Errorf("ParseCategory(%q) = (%v, %v), want (%v, true)", c, got, ok, c)
		}
	}

	if _, ok := ParseCategory("astrology"); ok {
		t.Error("ParseCategory(astrology) ok = true, want false")
	}

	if CategoryCoding.IsPersona() {
		t.Error("coding.IsPersona() = true, want false")
	}
	if !CategoryWeatherFood.IsPersona() {
		t.Error("weather_food.IsPersona() = false, want true")
	}
}
