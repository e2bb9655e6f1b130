package timeouts

import (
	"testing"
	"time"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	Reset()
	defer Reset()

	Configure(Config{Short: 7 * time.Second})
	if Short() != 7*time.Second {
		t.Errorf("Short() = %v, want 7s", Short())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium() = %v, want default", Medium())
	}
}

func TestConfigureFromEnv(t *testing.T) {
	Reset()
	defer Reset()

	t.Setenv("CHARITYHUB_TIMEOUT_LONG", "2m")
	t.Setenv("CHARITYHUB_TIMEOUT_PING", "bogus")

	if n := ConfigureFromEnv(); n != 1 {
		t.Errorf("ConfigureFromEnv() = %d, want 1", n)
	}
	if Long() != 2*time.Minute {
		t.Errorf("Long() = %v, want 2m", Long())
	}
	if Ping() != DefaultPing {
		t.Errorf("Ping() = %v, want default", Ping())
	}
}
