package inhibit

import (
	"os"
	"testing"
)

func TestInhibitor_ReleaseWithoutAcquire(t *testing.T) {
	i := New("wavecast-test", "unit test")
	i.Release()
}

func TestInhibitor_AcquireRelease(t *testing.T) {
	if os.Getenv("DBUS_SYSTEM_BUS_ADDRESS") == "" {
		if _, err := os.Stat("/run/dbus/system_bus_socket"); err != nil {
			t.Skip("no system D-Bus available")
		}
	}

	i := New("wavecast-test", "unit test")
	if err := i.Acquire(); err != nil {
		t.Skipf("logind refused inhibit: %v", err)
	}
	if err := i.Acquire(); err != nil {
		t.Errorf("second Acquire() error = %v", err)
	}
	i.Release()
	i.Release()
}
