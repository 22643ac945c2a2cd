package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOnOff(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"on", true, false},
		{"OFF", false, false},
		{"true", true, false},
		{"0", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOnOff(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLatLng(t *testing.T) {
	lat, lng, err := parseLatLng("37.7749, -122.4194")
	require.NoError(t, err)
	assert.Equal(t, 37.7749, lat)
	assert.Equal(t, -122.4194, lng)

	for _, bad := range []string{"37.7749", "north,-122", "91,0", "0,181", "1,2,3"} {
		_, _, err := parseLatLng(bad)
		assert.Error(t, err, bad)
	}
}
