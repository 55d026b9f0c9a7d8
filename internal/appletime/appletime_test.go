package appletime

import (
	"testing"
	"time"
)

func TestToUnixMilli(t *testing.T) {
	tests := []struct {
		name string
		raw  int64
		want int64
	}{
		{"reference epoch", 1, 978307200000},
		{"one second in", 1_000_000_000, 978307201000},
		{"known date", 690000000_000_000_000, 978307200000 + 690000000_000},
		{"sub-millisecond floor", 1_999_999, 978307200001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToUnixMilli(tt.raw); got != tt.want {
				t.Errorf("ToUnixMilli(%d) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestToUnixMilliZeroFallsBackToNow(t *testing.T) {
	before := time.Now().UnixMilli()
	got := ToUnixMilli(0)
	after := time.Now().UnixMilli()
	if got < before || got > after {
		t.Errorf("ToUnixMilli(0) = %d, want within [%d, %d]", got, before, after)
	}
}

func TestFromUnixMilliRoundTrip(t *testing.T) {
	raw := int64(690000000_000_000_000)
	if got := FromUnixMilli(ToUnixMilli(raw)); got != raw {
		t.Errorf("round trip = %d, want %d", got, raw)
	}
}
