package fanctl_test

import (
	"testing"

	"github.com/aprilwade/teslafanctl/internal/fanctl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandFrameUnix(t *testing.T) {
	frame := fanctl.CommandFrame("linux", 170)

	require.Len(t, frame, 64)
	assert.Equal(t, byte(1), frame[0])
	assert.Equal(t, byte(170), frame[1])
	for _, b := range frame[2:] {
		assert.Zero(t, b)
	}
}

func TestCommandFrameWindows(t *testing.T) {
	// Windows hidapi wants an explicit report ID ahead of the command tag
	frame := fanctl.CommandFrame("windows", 170)

	require.Len(t, frame, 64)
	assert.Equal(t, byte(1), frame[0])
	assert.Equal(t, byte(1), frame[1])
	assert.Equal(t, byte(170), frame[2])
	for _, b := range frame[3:] {
		assert.Zero(t, b)
	}
}

func TestCommandFrameFullRange(t *testing.T) {
	assert.Equal(t, byte(0), fanctl.CommandFrame("linux", 0)[1])
	assert.Equal(t, byte(255), fanctl.CommandFrame("linux", 255)[1])
}
