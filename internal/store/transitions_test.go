package store

import (
	"testing"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/models"
)

func TestValidEntryTransition(t *testing.T) {
	cases := []struct {
		action string
		from   string
		valid  bool
	}{
		{"call", "waiting", true},
		{"call", "called", false},
		{"call", "attending", false},
		{"attend", "called", true},
		{"attend", "waiting", false},
		{"complete", "attending", true},
		{"complete", "called", false},
		{"cancel", "waiting", true},
		{"cancel", "called", true},
		{"cancel", "attending", false},
		{"cancel", "completed", false},
		{"no_show", "waiting", true},
		{"no_show", "called", true},
		{"no_show", "attending", false},
		{"unknown", "waiting", false},
	}

	for _, tt := range cases {
		if got := ValidEntryTransition(tt.action, tt.from); got != tt.valid {
			t.Fatalf("ValidEntryTransition(%q, %q)=%v, want %v", tt.action, tt.from, got, tt.valid)
		}
	}
}

func TestEntryStatusFor(t *testing.T) {
	cases := []struct {
		action string
		status string
	}{
		{ActionCall, models.StatusCalled},
		{ActionAttend, models.StatusAttending},
		{ActionComplete, models.StatusCompleted},
		{ActionCancel, models.StatusCancelled},
		{ActionNoShow, models.StatusNoShow},
		{"unknown", ""},
	}
	for _, tt := range cases {
		if got := EntryStatusFor(tt.action); got != tt.status {
			t.Fatalf("EntryStatusFor(%q)=%q, want %q", tt.action, got, tt.status)
		}
	}
}

func TestValidReservationTransition(t *testing.T) {
	cases := []struct {
		action string
		from   string
		valid  bool
	}{
		{"confirm", "pending", true},
		{"confirm", "confirmed", false},
		{"cancel", "pending", true},
		{"cancel", "confirmed", true},
		{"cancel", "completed", false},
		{"complete", "confirmed", true},
		{"complete", "pending", false},
		{"no_show", "confirmed", true},
		{"no_show", "pending", false},
		{"unknown", "pending", false},
	}

	for _, tt := range cases {
		if got := ValidReservationTransition(tt.action, tt.from); got != tt.valid {
			t.Fatalf("ValidReservationTransition(%q, %q)=%v, want %v", tt.action, tt.from, got, tt.valid)
		}
	}
}

func TestEventTypes(t *testing.T) {
	if got := EntryEventType(ActionCall); got != EventEntryCalled {
		t.Fatalf("EntryEventType(call)=%q", got)
	}
	if got := EntryEventType("unknown"); got != "" {
		t.Fatalf("EntryEventType(unknown)=%q", got)
	}
	if got := ReservationEventType(ReservationActionNoShow); got != EventReservationNoShow {
		t.Fatalf("ReservationEventType(no_show)=%q", got)
	}
}
