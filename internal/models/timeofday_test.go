package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		raw     string
		want    TimeOfDay
		wantErr bool
	}{
		{raw: "09:00", want: 9 * 60},
		{raw: "00:00", want: 0},
		{raw: "23:59", want: 23*60 + 59},
		{raw: "14:05:00", want: 14*60 + 5},
		{raw: "24:00", wantErr: true},
		{raw: "12:60", wantErr: true},
		{raw: "nine", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "9:05", wantErr: true},
		{raw: "9:5pm", wantErr: true},
		{raw: "09:3a", wantErr: true},
		{raw: "09:30xyz", wantErr: true},
		{raw: "x09:30", wantErr: true},
		{raw: " 09:30", wantErr: true},
		{raw: "09:30:00:00", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.raw)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.raw)
			continue
		}
		require.NoError(t, err, "input %q", tc.raw)
		assert.Equal(t, tc.want, got, "input %q", tc.raw)
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "09:05", TimeOfDay(9*60+5).String())
	assert.Equal(t, "00:00", TimeOfDay(0).String())
}

func TestTimeOfDayScan(t *testing.T) {
	var tod TimeOfDay
	require.NoError(t, tod.Scan("10:30:00"))
	assert.Equal(t, TimeOfDay(10*60+30), tod)

	require.NoError(t, tod.Scan([]byte("08:15")))
	assert.Equal(t, TimeOfDay(8*60+15), tod)

	require.NoError(t, tod.Scan(time.Date(2024, 3, 4, 11, 45, 0, 0, time.UTC)))
	assert.Equal(t, TimeOfDay(11*60+45), tod)

	assert.Error(t, tod.Scan(42))
}

func TestIntervalOverlaps(t *testing.T) {
	nineToTen := Interval{Start: 9 * 60, End: 10 * 60}

	cases := []struct {
		name  string
		other Interval
		want  bool
	}{
		{name: "identical", other: Interval{Start: 9 * 60, End: 10 * 60}, want: true},
		{name: "partial overlap", other: Interval{Start: 9*60 + 30, End: 10*60 + 30}, want: true},
		{name: "contained", other: Interval{Start: 9*60 + 15, End: 9*60 + 45}, want: true},
		{name: "containing", other: Interval{Start: 8 * 60, End: 11 * 60}, want: true},
		{name: "back to back after", other: Interval{Start: 10 * 60, End: 11 * 60}, want: false},
		{name: "back to back before", other: Interval{Start: 8 * 60, End: 9 * 60}, want: false},
		{name: "disjoint", other: Interval{Start: 12 * 60, End: 13 * 60}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nineToTen.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(nineToTen))
		})
	}
}

func TestIntervalValid(t *testing.T) {
	assert.True(t, Interval{Start: 9 * 60, End: 10 * 60}.Valid())
	assert.False(t, Interval{Start: 10 * 60, End: 10 * 60}.Valid())
	assert.False(t, Interval{Start: 11 * 60, End: 10 * 60}.Valid())
	assert.False(t, Interval{Start: -1, End: 10}.Valid())
}
