package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceIDOverride(t *testing.T) {
	t.Setenv(DeviceIDEnv, "greenhouse-1")
	assert.Equal(t, "greenhouse-1", DeviceID())
}

func TestDeviceIDStable(t *testing.T) {
	t.Setenv(DeviceIDEnv, "")
	id := DeviceID()
	assert.NotEmpty(t, id)
	assert.Equal(t, id, DeviceID())
}
