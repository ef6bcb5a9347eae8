package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		label   string
		want    string
		wantErr bool
	}{
		{label: "09:00", want: "09:00"},
		{label: "9:00", want: "09:00"},
		{label: "14:30", want: "14:30"},
		{label: "00:00", want: "00:00"},
		{label: "09:00 AM", want: "09:00"},
		{label: "9:00am", want: "09:00"},
		{label: "12:00 PM", want: "12:00"},
		{label: "12:30 AM", want: "00:30"},
		{label: "02:00 PM", want: "14:00"},
		{label: " 03:00 pm ", want: "15:00"},
		{label: "24:00", wantErr: true},
		{label: "13:00 PM", wantErr: true},
		{label: "00:00 AM", wantErr: true},
		{label: "9:0", wantErr: true},
		{label: "+9:00", wantErr: true},
		{label: "9:+5", wantErr: true},
		{label: "-1:00", wantErr: true},
		{label: "09: 5", wantErr: true},
		{label: "nine", wantErr: true},
		{label: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.label)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestTimeOfDay_Format(t *testing.T) {
	assert.Equal(t, "14:00", MustTimeOfDay("14:00").Format(DisplayFormat24h))
	assert.Equal(t, "02:00 PM", MustTimeOfDay("14:00").Format(DisplayFormat12h))
	assert.Equal(t, "12:00 AM", MustTimeOfDay("00:00").Format(DisplayFormat12h))
	assert.Equal(t, "12:15 PM", MustTimeOfDay("12:15").Format(DisplayFormat12h))
}

func TestTimeOfDay_SameSlotAcrossFormats(t *testing.T) {
	assert.Equal(t, MustTimeOfDay("14:00"), MustTimeOfDay("02:00 PM"))
}

func TestTimeOfDay_Scan(t *testing.T) {
	var tod TimeOfDay
	require.NoError(t, tod.Scan(int64(600)))
	assert.Equal(t, "10:00", tod.String())

	assert.Error(t, tod.Scan(int64(1440)))
	assert.Error(t, tod.Scan("10:00"))
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("Wednesday")
	require.NoError(t, err)
	assert.Equal(t, Wednesday, d)

	for _, bad := range []string{"wednesday", "Wed", "", "Unknown"} {
		d, err := ParseWeekday(bad)
		assert.Error(t, err, bad)
		assert.Equal(t, WeekdayUnknown, d)
	}
}

func TestCivilDate(t *testing.T) {
	t.Run("weekday", func(t *testing.T) {
		tests := map[string]Weekday{
			"2025-06-02": Monday,
			"2025-06-04": Wednesday,
			"2025-06-08": Sunday,
			"2024-02-29": Thursday,
		}
		for s, want := range tests {
			d, err := ParseCivilDate(s)
			require.NoError(t, err)
			assert.Equal(t, want, d.Weekday(), s)
		}
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		for _, s := range []string{"2025-02-30", "2025-6-2", "02/06/2025", "2025-13-01", ""} {
			_, err := ParseCivilDate(s)
			assert.Error(t, err, s)
		}
	})

	t.Run("today uses the given location", func(t *testing.T) {
		// 23:30 UTC on the 1st is already the 2nd in Lagos (UTC+1).
		now := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
		lagos := time.FixedZone("WAT", 3600)

		assert.Equal(t, "2025-06-01", Today(now, time.UTC).String())
		assert.Equal(t, "2025-06-02", Today(now, lagos).String())
	})

	t.Run("ordering", func(t *testing.T) {
		a, _ := ParseCivilDate("2025-06-01")
		b, _ := ParseCivilDate("2025-06-02")
		assert.True(t, a.Before(b))
		assert.False(t, b.Before(a))
		assert.False(t, a.Before(a))
		assert.Equal(t, b, a.AddDays(1))
	})
}

func TestWeeklyAvailabilityPattern_JSON(t *testing.T) {
	t.Run("accepts both label formats", func(t *testing.T) {
		var p WeeklyAvailabilityPattern
		err := json.Unmarshal([]byte(`{"Monday":["09:00 AM","10:00"],"Friday":["02:00 PM"]}`), &p)
		require.NoError(t, err)

		assert.Equal(t, []TimeOfDay{MustTimeOfDay("09:00"), MustTimeOfDay("10:00")}, p[Monday])
		assert.Equal(t, []TimeOfDay{MustTimeOfDay("14:00")}, p[Friday])
		assert.Equal(t, []Weekday{Monday, Friday}, p.Days())
	})

	t.Run("rejects duplicates after conversion", func(t *testing.T) {
		var p WeeklyAvailabilityPattern
		err := json.Unmarshal([]byte(`{"Monday":["14:00","02:00 PM"]}`), &p)
		assert.Error(t, err)
	})

	t.Run("rejects unknown weekday", func(t *testing.T) {
		var p WeeklyAvailabilityPattern
		err := json.Unmarshal([]byte(`{"Funday":["09:00"]}`), &p)
		assert.Error(t, err)
	})

	t.Run("null decodes to no pattern", func(t *testing.T) {
		p := WeeklyAvailabilityPattern{Monday: nil}
		require.NoError(t, json.Unmarshal([]byte(`null`), &p))
		assert.Nil(t, p)
	})

	t.Run("marshals canonical labels", func(t *testing.T) {
		p := WeeklyAvailabilityPattern{Tuesday: {MustTimeOfDay("10:00 AM"), MustTimeOfDay("01:00 PM")}}
		b, err := json.Marshal(p)
		require.NoError(t, err)
		assert.JSONEq(t, `{"Tuesday":["10:00","13:00"]}`, string(b))
	})
}

func TestWeeklyAvailabilityPattern_Scan(t *testing.T) {
	var p WeeklyAvailabilityPattern
	require.NoError(t, p.Scan([]byte(`{"Thursday":["13:00","14:00"]}`)))
	assert.Len(t, p[Thursday], 2)

	require.NoError(t, p.Scan(nil))
	assert.Nil(t, p)

	v, err := WeeklyAvailabilityPattern(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
