package timetext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Date(2021, 3, 26, 15, 30, 0, 0, time.UTC),
		time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}

	for _, want := range cases {
		got, err := FromStorage(ToStorage(want))
		require.NoError(t, err)
		assert.True(t, got.Equal(want), "round trip changed %v to %v", want, got)
	}
}

func TestToStorageConvertsToUTC(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 17:30 CEST is 15:30 UTC
	local := time.Date(2021, 6, 26, 17, 30, 0, 0, berlin)
	assert.Equal(t, "2021-06-26T15:30:00", ToStorage(local))
}

func TestSubsecondPrecisionIsDropped(t *testing.T) {
	in := time.Date(2021, 3, 26, 15, 30, 0, 123456789, time.UTC)
	got, err := FromStorage(ToStorage(in))
	require.NoError(t, err)
	assert.True(t, got.Equal(in.Truncate(time.Second)))
}

func TestFromStorageRejectsGarbage(t *testing.T) {
	_, err := FromStorage("26.03.2021 15:30")
	assert.Error(t, err)
}

func TestDayBounds(t *testing.T) {
	now := time.Date(2021, 3, 26, 15, 30, 45, 0, time.UTC)
	assert.Equal(t, time.Date(2021, 3, 26, 0, 0, 0, 0, time.UTC), DayStart(now))
	assert.Equal(t, time.Date(2021, 3, 26, 23, 59, 59, 0, time.UTC), DayEnd(now))
}
