package types

import "testing"

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"todo", StatusTodo},
		{"In Progress", StatusInProgress},
		{"IN-PROGRESS", StatusInProgress},
		{"wip", StatusInProgress},
		{"Completed", StatusDone},
		{"closed", StatusDone},
		{"canceled", StatusCancelled},
		{"  review ", StatusReview},
		{"icebox", StatusBacklog},
	}
	for _, tc := range cases {
		got, err := ParseStatus(tc.raw)
		if err != nil {
			t.Errorf("ParseStatus(%q): %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}

	for _, raw := range []string{"", "later", "status"} {
		if _, err := ParseStatus(raw); err == nil {
			t.Errorf("ParseStatus(%q) expected error", raw)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range Statuses() {
		terminal := s == StatusDone || s == StatusCancelled
		if s.Terminal() != terminal {
			t.Errorf("%s.Terminal() = %v, want %v", s, s.Terminal(), terminal)
		}
	}
}

func TestParsePriority(t *testing.T) {
	cases := []struct {
		raw  string
		want Priority
	}{
		{"", PriorityNone},
		{"Low", PriorityLow},
		{"normal", PriorityMedium},
		{"HIGH", PriorityHigh},
		{"critical", PriorityUrgent},
		{"blocker", PriorityUrgent},
	}
	for _, tc := range cases {
		got, err := ParsePriority(tc.raw)
		if err != nil {
			t.Errorf("ParsePriority(%q): %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePriority(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}

	if _, err := ParsePriority("asap!"); err == nil {
		t.Error("ParsePriority(\"asap!\") expected error")
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	ps := Priorities()
	for i := 1; i < len(ps); i++ {
		if ps[i].Rank() <= ps[i-1].Rank() {
			t.Errorf("expected %s to rank above %s", ps[i], ps[i-1])
		}
	}
}

func TestParseRole(t *testing.T) {
	got, err := ParseRole("")
	if err != nil || got != RoleEditor {
		t.Errorf("ParseRole(\"\") = %q, %v; want editor default", got, err)
	}
	got, err = ParseRole("Owner")
	if err != nil || got != RoleOwner {
		t.Errorf("ParseRole(\"Owner\") = %q, %v", got, err)
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Error("ParseRole(\"superuser\") expected error")
	}
}
