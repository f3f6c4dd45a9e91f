package scheduling

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"9:00", 0, true},
		{"0900", 0, true},
		{"nine", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatClock_RoundTrip(t *testing.T) {
	for _, s := range []string{"00:00", "08:30", "14:05", "23:59"} {
		min, err := ParseClock(s)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", s, err)
		}
		if got := FormatClock(min); got != s {
			t.Errorf("FormatClock(ParseClock(%q)) = %q", s, got)
		}
	}
}

func TestAppointmentEndTime(t *testing.T) {
	a := appt(uuid.New(), p1, "2025-01-15", "09:30", 45, StatusScheduled)
	if got := a.EndTime(); got != "10:15" {
		t.Errorf("end = %q, want 10:15", got)
	}
}

func TestDaysApart(t *testing.T) {
	if got := daysApart(day("2025-01-15"), day("2025-01-18")); got != 3 {
		t.Errorf("daysApart = %d, want 3", got)
	}
	if got := daysApart(day("2025-01-18"), day("2025-01-15")); got != 3 {
		t.Errorf("daysApart should be symmetric, got %d", got)
	}
	if got := daysApart(day("2025-01-15"), day("2025-01-15")); got != 0 {
		t.Errorf("daysApart same day = %d, want 0", got)
	}
}

func TestWaitingListEntry_IsTerminal(t *testing.T) {
	for status, want := range map[string]bool{
		WaitingStatusWaiting:   false,
		WaitingStatusContacted: false,
		WaitingStatusScheduled: true,
		WaitingStatusCancelled: true,
	} {
		w := WaitingListEntry{Status: status}
		if got := w.IsTerminal(); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}
