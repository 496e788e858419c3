package window_test

import (
	"testing"

	"github.com/aprilwade/teslafanctl/internal/window"
	"github.com/stretchr/testify/assert"
)

func TestAggregatesAfterFullRound(t *testing.T) {
	// GIVEN
	w := window.New(3)

	// WHEN
	w.Push(1)
	w.Push(2)
	w.Push(3)

	// THEN
	assert.Equal(t, 3.0, w.Max())
	assert.Equal(t, 2.0, w.Mean())
}

func TestPushOverwritesOldest(t *testing.T) {
	// GIVEN
	w := window.New(3)
	w.Push(1)
	w.Push(2)
	w.Push(3)

	// WHEN
	w.Push(10)

	// THEN
	assert.Equal(t, 10.0, w.Max())
	assert.Equal(t, 5.0, w.Mean()) // (10 + 2 + 3) / 3
}

func TestFillSeedsEverySlot(t *testing.T) {
	// GIVEN
	w := window.New(4)

	// WHEN
	w.Fill(7)

	// THEN
	assert.Equal(t, 7.0, w.Max())
	assert.Equal(t, 7.0, w.Mean())

	// WHEN a single new sample arrives
	w.Push(11)

	// THEN it displaces exactly one seeded slot
	assert.Equal(t, 11.0, w.Max())
	assert.Equal(t, 8.0, w.Mean()) // (11 + 7 + 7 + 7) / 4
}

func TestCapacityFloorsAtOne(t *testing.T) {
	// GIVEN
	w := window.New(0)

	// WHEN
	w.Push(5)

	// THEN
	assert.Equal(t, 1, w.Capacity())
	assert.Equal(t, 5.0, w.Max())
	assert.Equal(t, 5.0, w.Mean())
}
