package services

import "testing"

func TestParseCriteriaStructured(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Target
	}{
		{"minutes", `{"minutes": 120}`, Target{Minutes: 120}},
		{"sessions", `{"sessions": 5}`, Target{Sessions: 5}},
		{"streak", `{"streak": 7}`, Target{Streak: 7}},
		{"consecutiveDays alias", `{"consecutiveDays": 3}`, Target{Streak: 3}},
		{"xp threshold", `{"xp": 500}`, Target{XpThreshold: 500}},
		{"numeric string value", `{"minutes": "45"}`, Target{Minutes: 45}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseCriteria(tc.raw); got != tc.want {
				t.Errorf("ParseCriteria(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestParseCriteriaKeyValue(t *testing.T) {
	cases := []struct {
		raw  string
		want Target
	}{
		{"minutes:50", Target{Minutes: 50}},
		{"total_minutes:300", Target{Minutes: 300}},
		{"sessions:4", Target{Sessions: 4}},
		{"session_count:10", Target{Sessions: 10}},
		{"streak:7", Target{Streak: 7}},
		{"streak_days:14", Target{Streak: 14}},
		{"unique_days:5", Target{UniqueDays: 5}},
		{"weekend_sessions:2", Target{WeekendSessions: 2}},
		{"total_xp:1000", Target{XpThreshold: 1000}},
		{" minutes : 30 ", Target{Minutes: 30}},
	}
	for _, tc := range cases {
		if got := ParseCriteria(tc.raw); got != tc.want {
			t.Errorf("ParseCriteria(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestParseCriteriaFreeText(t *testing.T) {
	cases := []struct {
		raw  string
		want Target
	}{
		{"Study 120 minutes this week", Target{Minutes: 120}},
		{"Complete 3 sessions", Target{Sessions: 3}},
		{"Keep a 7 day streak", Target{Streak: 7}},
		{"Keep a 7-day streak", Target{Streak: 7}},
	}
	for _, tc := range cases {
		if got := ParseCriteria(tc.raw); got != tc.want {
			t.Errorf("ParseCriteria(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestParseCriteriaUnrecognized(t *testing.T) {
	cases := []string{
		"",
		"do your best",
		"minutes:abc",
		"minutes:-5",
		`{"unknown": 5}`,
		`{"minutes": bad json`,
	}
	for _, raw := range cases {
		got := ParseCriteria(raw)
		if !got.IsZero() {
			t.Errorf("ParseCriteria(%q) = %+v, want zero Target", raw, got)
		}
	}
}

func TestParseCriteriaPriorityOrder(t *testing.T) {
	// A valid JSON object wins over the key:value reading of the same text.
	got := ParseCriteria(`{"minutes": 60}`)
	if got != (Target{Minutes: 60}) {
		t.Fatalf("structured form should win, got %+v", got)
	}
}
