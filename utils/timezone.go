package utils

import (
	"fmt"
	"os"
	"time"
)

// The restaurant runs on a single wall-clock zone; reservation forms submit
// local date and time and the server normalizes both before storage.
const defaultRestaurantZone = "Asia/Bangkok"

func RestaurantZone() (*time.Location, error) {
	name := os.Getenv("RESTAURANT_TZ")
	if name == "" {
		name = defaultRestaurantZone
	}
	return time.LoadLocation(name)
}

// NormalizeReservationTime interprets date ("2006-01-02") and clock ("15:04")
// as wall-clock values in the restaurant's zone. It returns the absolute
// slot time as an RFC 3339 UTC string and the calendar date in the
// restaurant's zone.
func NormalizeReservationTime(date, clock string) (slotUTC string, day string, err error) {
	loc, err := RestaurantZone()
	if err != nil {
		return "", "", err
	}

	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return "", "", fmt.Errorf("invalid reservation date or time: %w", err)
	}

	return t.UTC().Format(time.RFC3339), t.Format("2006-01-02"), nil
}
