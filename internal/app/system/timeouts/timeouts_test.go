package timeouts

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	Reset()
	if Ping() != DefaultPing || Lookup() != DefaultLookup || Write() != DefaultWrite || Batch() != DefaultBatch {
		t.Errorf("defaults not applied: %+v", Current())
	}
}

func TestConfigure_IgnoresZero(t *testing.T) {
	Reset()
	defer Reset()

	Configure(Config{Lookup: 7 * time.Second})

	if Lookup() != 7*time.Second {
		t.Errorf("Lookup = %v, want 7s", Lookup())
	}
	if Write() != DefaultWrite {
		t.Errorf("Write changed to %v by zero value", Write())
	}
}
