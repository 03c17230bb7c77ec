package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHourWrapStaysInRange(t *testing.T) {
	for h := 0; h < 24; h++ {
		prev, next := PrevHour(h), NextHour(h)
		assert.GreaterOrEqual(t, prev, 0)
		assert.Less(t, prev, 24)
		assert.GreaterOrEqual(t, next, 0)
		assert.Less(t, next, 24)
	}

	assert.Equal(t, 23, PrevHour(0))
	assert.Equal(t, 0, NextHour(23))
}

func TestClock12(t *testing.T) {
	tests := []struct {
		hour string
		want string
	}{
		{hour: "00", want: "12 AM"},
		{hour: "01", want: "1 AM"},
		{hour: "11", want: "11 AM"},
		{hour: "12", want: "12 PM"},
		{hour: "13", want: "1 PM"},
		{hour: "23", want: "11 PM"},
	}

	for _, tt := range tests {
		t.Run(tt.hour, func(t *testing.T) {
			assert.Equal(t, tt.want, Clock12(tt.hour))
		})
	}
}

func TestClock12BadInput(t *testing.T) {
	assert.Equal(t, "zz", Clock12("zz"))
}
