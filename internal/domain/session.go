package domain

import "time"

// IsSessionOpen reports whether the futures trading session is open at
// the given instant. now must already be in the exchange timezone.
//
// Session hours: closed all Saturday; opens Sunday 18:00; open
// continuously Monday through Thursday; closes Friday 17:00.
func IsSessionOpen(now time.Time) bool {
	switch now.Weekday() {
	case time.Saturday:
		return false
	case time.Sunday:
		return now.Hour() >= 18
	case time.Friday:
		return now.Hour() < 17
	default:
		return true
	}
}
