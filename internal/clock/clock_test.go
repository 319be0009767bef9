package clock

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWall(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2025, 3, 9, 20, 15, 0, 0, time.UTC)

	date, hhmm := Wall(now, loc)

	assert.Equal(t, "10/03/2025", date.Format("02/01/2006"))
	assert.Equal(t, "01:45", hhmm)
}

func TestAt(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	got, err := At(date, "18:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC), got)

	_, err = At(date, "25:00", time.UTC)
	assert.Error(t, err)
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	var c clockwork.FakeClock = NewFake(start)

	c.Advance(90 * time.Minute)

	assert.Equal(t, start.Add(90*time.Minute), c.Now())
}
