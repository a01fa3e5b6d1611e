package services

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Target is the normalized, evaluable form of a mission criteria string.
// At most one field is populated by a well-formed criteria; the evaluator
// checks every populated field independently anyway. A zero Target can never
// be satisfied through counters.
type Target struct {
	Minutes         int `json:"minutes,omitempty"`
	Sessions        int `json:"sessions,omitempty"`
	Streak          int `json:"streak,omitempty"`
	UniqueDays      int `json:"unique_days,omitempty"`
	WeekendSessions int `json:"weekend_sessions,omitempty"`
	XpThreshold     int `json:"xp_threshold,omitempty"`
}

// IsZero reports whether no dimension is populated, i.e. the criteria string
// was unrecognizable and the mission cannot complete via counters.
func (t Target) IsZero() bool {
	return t == Target{}
}

// ParseCriteria interprets a mission's criteria string. Three forms are
// tried in priority order: a serialized JSON object, a single "key:value"
// pair, then free-text pattern matching. Unrecognized input degrades to a
// zero Target rather than an error so one malformed mission never breaks
// evaluation of the others; callers log the diagnostic.
func ParseCriteria(raw string) Target {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}
	}
	if t, ok := parseStructured(raw); ok {
		return t
	}
	if t, ok := parseKeyValue(raw); ok {
		return t
	}
	return parseFreeText(raw)
}

// parseStructured handles serialized objects like {"minutes": 120} or
// {"xp": 500}. The xp key is an absolute threshold against total experience,
// not a delta target.
func parseStructured(raw string) (Target, bool) {
	if !strings.HasPrefix(raw, "{") {
		return Target{}, false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return Target{}, false
	}
	var t Target
	for key, val := range obj {
		n := asPositiveInt(val)
		if n <= 0 {
			continue
		}
		switch key {
		case "minutes":
			t.Minutes = n
		case "sessions":
			t.Sessions = n
		case "streak", "consecutiveDays":
			t.Streak = n
		case "xp":
			t.XpThreshold = n
		}
	}
	return t, !t.IsZero()
}

// parseKeyValue handles a single "key:value" pair, e.g. "unique_days:5".
func parseKeyValue(raw string) (Target, bool) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return Target{}, false
	}
	key := strings.ToLower(strings.TrimSpace(parts[0]))
	n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || n <= 0 {
		return Target{}, false
	}
	var t Target
	switch key {
	case "total_minutes", "minutes":
		t.Minutes = n
	case "session_count", "sessions":
		t.Sessions = n
	case "streak_days", "streak":
		t.Streak = n
	case "unique_days":
		t.UniqueDays = n
	case "weekend_sessions":
		t.WeekendSessions = n
	case "total_xp":
		t.XpThreshold = n
	default:
		return Target{}, false
	}
	return t, true
}

var (
	reMinutes = regexp.MustCompile(`(\d+)\s*minutes`)
	reSession = regexp.MustCompile(`(\d+)\s*session`)
	reStreak  = regexp.MustCompile(`(\d+)[-\s]day streak`)
)

// parseFreeText is the best-effort fallback for human-written criteria like
// "Study 120 minutes this week". First recognized pattern wins.
func parseFreeText(raw string) Target {
	lower := strings.ToLower(raw)
	if m := reStreak.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return Target{Streak: n}
		}
	}
	if m := reMinutes.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return Target{Minutes: n}
		}
	}
	if m := reSession.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return Target{Sessions: n}
		}
	}
	return Target{}
}

// asPositiveInt coerces a decoded JSON value to int, tolerating numbers
// serialized as strings.
func asPositiveInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}
