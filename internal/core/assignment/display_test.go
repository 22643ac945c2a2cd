package assignment

import (
	"testing"
	"time"
)

func TestDisplayFor(t *testing.T) {
	t.Run("no route shows calculating", func(t *testing.T) {
		d := DisplayFor(nil, nil)
		if d.Distance != Calculating || d.ETA != Calculating {
			t.Errorf("got %+v", d)
		}
	})

	t.Run("route is formatted", func(t *testing.T) {
		meters := 3218.688
		travel := 4*time.Minute + 10*time.Second
		d := DisplayFor(&meters, &travel)
		if d.Distance != "2 mi" {
			t.Errorf("Distance = %q, want %q", d.Distance, "2 mi")
		}
		if d.ETA != "5 min" {
			t.Errorf("ETA = %q, want %q", d.ETA, "5 min")
		}
	})
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters float64
		want   string
	}{
		{meters: 100, want: "328 ft"},
		{meters: 804.672, want: "0.5 mi"},
		{meters: 16093.44, want: "10 mi"},
	}
	for _, tt := range tests {
		if got := FormatDistance(tt.meters); got != tt.want {
			t.Errorf("FormatDistance(%v) = %q, want %q", tt.meters, got, tt.want)
		}
	}
}

func TestFormatETA(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{d: 0, want: "< 1 min"},
		{d: 30 * time.Second, want: "1 min"},
		{d: 59 * time.Minute, want: "59 min"},
		{d: 95 * time.Minute, want: "1 hr 35 min"},
	}
	for _, tt := range tests {
		if got := FormatETA(tt.d); got != tt.want {
			t.Errorf("FormatETA(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
