package types

import "fmt"

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELLED BookingStatus = "cancelled"
	BOOKING_COMPLETED BookingStatus = "completed"
)

// bookingTransitions is the table consulted by the quick status update.
// Admin overrides do not go through it.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BOOKING_PENDING:   {BOOKING_CONFIRMED, BOOKING_CANCELLED},
	BOOKING_CONFIRMED: {BOOKING_COMPLETED, BOOKING_CANCELLED},
	BOOKING_COMPLETED: {},
	BOOKING_CANCELLED: {},
}

func (s BookingStatus) IsValid() bool {
	_, exists := bookingTransitions[s]
	return exists
}

func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// IsEditable reports whether the owner may still change date, participants or requests.
func (s BookingStatus) IsEditable() bool {
	return s == BOOKING_PENDING || s == BOOKING_CONFIRMED
}

func (s BookingStatus) String() string {
	return string(s)
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
