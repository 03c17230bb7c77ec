package tasks

import (
	"fmt"
	"strconv"
)

// PrevHour wraps backwards around midnight.
func PrevHour(h int) int {
	return (h - 1 + 24) % 24
}

// NextHour wraps forwards around midnight.
func NextHour(h int) int {
	return (h + 1) % 24
}

// Clock12 renders a two-digit 24-hour string as its 12-hour label:
// "00" becomes "12 AM", "12" becomes "12 PM", "23" becomes "11 PM".
//
// Unparseable input is returned as-is rather than guessed at.
func Clock12(hour string) string {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return hour
	}

	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	twelve := h % 12
	if twelve == 0 {
		twelve = 12
	}

	return fmt.Sprintf("%d %s", twelve, period)
}
