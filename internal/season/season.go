package season

import (
	"fmt"
	"time"
)

// Season is one of the three fixed 3-month climate windows used both for
// historical weather averaging and for picking season-appropriate crops.
type Season string

const (
	Summer  Season = "SUMMER"  // Apr-Jun
	Monsoon Season = "MONSOON" // Jul-Sep
	Winter  Season = "WINTER"  // Dec-Feb, spans the year boundary
)

// anchorOffset is how many years back historical windows are anchored.
// The weather archive lags the present, so each window is taken five years ago.
const anchorOffset = 5

// All returns the seasons in canonical processing order.
func All() []Season {
	return []Season{Summer, Monsoon, Winter}
}

// Valid reports whether s is one of the three known seasons.
func (s Season) Valid() bool {
	switch s {
	case Summer, Monsoon, Winter:
		return true
	}
	return false
}

// Window returns the inclusive start and end dates (YYYY-MM-DD) of the
// season's historical window, anchored at now.Year()-5. Winter runs from
// December into February of the following year. ok is false for unknown
// seasons.
func Window(s Season, now time.Time) (start, end string, ok bool) {
	year := now.Year() - anchorOffset
	switch s {
	case Summer:
		return fmt.Sprintf("%d-04-01", year), fmt.Sprintf("%d-06-30", year), true
	case Monsoon:
		return fmt.Sprintf("%d-07-01", year), fmt.Sprintf("%d-09-30", year), true
	case Winter:
		return fmt.Sprintf("%d-12-01", year), fmt.Sprintf("%d-02-28", year+1), true
	}
	return "", "", false
}
