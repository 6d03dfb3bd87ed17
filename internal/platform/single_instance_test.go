package platform

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortFromName_StableAndInRange(t *testing.T) {
	port := portFromName("ringtimer")
	assert.Equal(t, port, portFromName("ringtimer"))
	assert.GreaterOrEqual(t, port, minPort)
	assert.LessOrEqual(t, port, maxPort)
	assert.Equal(t, fmt.Sprintf("127.0.0.1:%d", port), LockAddress("ringtimer"))
}

func TestAcquireSingleInstance_SecondCallerRejected(t *testing.T) {
	name := "ringtimer-test-" + t.Name()

	guard, err := AcquireSingleInstance(name)
	if err != nil {
		t.Skipf("lock port unavailable: %v", err)
	}
	assert.Equal(t, LockAddress(name), guard.Address())

	_, err = AcquireSingleInstance(name)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, guard.Release())
	require.NoError(t, guard.Release())

	again, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestNilGuard(t *testing.T) {
	var guard *InstanceGuard
	assert.NoError(t, guard.Release())
	assert.Empty(t, guard.Address())
}
