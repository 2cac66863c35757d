package store

import "github.com/leandropaiva-dev/minhavez-sub001/internal/models"

// Legal staff actions on a queue entry and the statuses they accept.
// The same table backs both request validation and the SQL status
// guard, so two staff members acting on the same entry cannot both
// win an out-of-order transition.
var entryTransitions = map[string][]string{
	ActionCall:     {models.StatusWaiting},
	ActionAttend:   {models.StatusCalled},
	ActionComplete: {models.StatusAttending},
	ActionCancel:   {models.StatusWaiting, models.StatusCalled},
	ActionNoShow:   {models.StatusWaiting, models.StatusCalled},
}

const (
	ActionCall     = "call"
	ActionAttend   = "attend"
	ActionComplete = "complete"
	ActionCancel   = "cancel"
	ActionNoShow   = "no_show"
)

var reservationTransitions = map[string][]string{
	ReservationActionConfirm:  {models.ReservationPending},
	ReservationActionCancel:   {models.ReservationPending, models.ReservationConfirmed},
	ReservationActionComplete: {models.ReservationConfirmed},
	ReservationActionNoShow:   {models.ReservationConfirmed},
}

const (
	ReservationActionConfirm  = "confirm"
	ReservationActionCancel   = "cancel"
	ReservationActionComplete = "complete"
	ReservationActionNoShow   = "no_show"
)

func ValidEntryTransition(action, fromStatus string) bool {
	return contains(entryTransitions[action], fromStatus)
}

// EntryStatusesFor returns the statuses an action may start from,
// for use in SQL status guards.
func EntryStatusesFor(action string) []string {
	allowed := entryTransitions[action]
	out := make([]string, len(allowed))
	copy(out, allowed)
	return out
}

// EntryStatusFor maps an action to the status it produces.
func EntryStatusFor(action string) string {
	switch action {
	case ActionCall:
		return models.StatusCalled
	case ActionAttend:
		return models.StatusAttending
	case ActionComplete:
		return models.StatusCompleted
	case ActionCancel:
		return models.StatusCancelled
	case ActionNoShow:
		return models.StatusNoShow
	default:
		return ""
	}
}

func ValidReservationTransition(action, fromStatus string) bool {
	return contains(reservationTransitions[action], fromStatus)
}

func ReservationStatusesFor(action string) []string {
	allowed := reservationTransitions[action]
	out := make([]string, len(allowed))
	copy(out, allowed)
	return out
}

func ReservationStatusFor(action string) string {
	switch action {
	case ReservationActionConfirm:
		return models.ReservationConfirmed
	case ReservationActionCancel:
		return models.ReservationCancelled
	case ReservationActionComplete:
		return models.ReservationCompleted
	case ReservationActionNoShow:
		return models.ReservationNoShow
	default:
		return ""
	}
}

func contains(values []string, value string) bool {
	for _, item := range values {
		if item == value {
			return true
		}
	}
	return false
}
