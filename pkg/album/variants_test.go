package album

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"icgrab/pkg/icloud"
)

func TestBestDerivative(t *testing.T) {
	tests := []struct {
		name         string
		derivatives  map[string]icloud.Derivative
		expectedKey  string
		expectedOK   bool
	}{
		{
			name: "largest numeric label wins",
			derivatives: map[string]icloud.Derivative{
				"100":  {Checksum: "cs-small"},
				"2000": {Checksum: "cs-large"},
				"500":  {Checksum: "cs-mid"},
			},
			expectedKey: "2000",
			expectedOK:  true,
		},
		{
			name: "single unparsable label still selected",
			derivatives: map[string]icloud.Derivative{
				"mediaAssetUrl": {Checksum: "cs-video"},
			},
			expectedKey: "mediaAssetUrl",
			expectedOK:  true,
		},
		{
			name: "numeric label beats unparsable label",
			derivatives: map[string]icloud.Derivative{
				"mediaAssetUrl": {Checksum: "cs-video"},
				"342":           {Checksum: "cs-thumb"},
			},
			expectedKey: "342",
			expectedOK:  true,
		},
		{
			name: "tie breaks to lexicographically smallest label",
			derivatives: map[string]icloud.Derivative{
				"100":  {Checksum: "cs-b"},
				"0100": {Checksum: "cs-a"},
			},
			expectedKey: "0100",
			expectedOK:  true,
		},
		{
			name:        "no derivatives",
			derivatives: map[string]icloud.Derivative{},
			expectedOK:  false,
		},
		{
			name:        "nil derivatives",
			derivatives: nil,
			expectedOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			photo := &icloud.Photo{PhotoGUID: "guid", Derivatives: tt.derivatives}

			label, derivative, ok := BestDerivative(photo)
			assert.Equal(t, tt.expectedOK, ok)
			if tt.expectedOK {
				assert.Equal(t, tt.expectedKey, label)
				assert.Equal(t, tt.derivatives[tt.expectedKey].Checksum, derivative.Checksum)
			}
		})
	}
}

func TestBestDerivativeDeterministic(t *testing.T) {
	// Map iteration order is randomized; selection must not be.
	photo := &icloud.Photo{
		PhotoGUID: "guid",
		Derivatives: map[string]icloud.Derivative{
			"800":  {Checksum: "a"},
			"0800": {Checksum: "b"},
			"080":  {Checksum: "c"},
		},
	}

	label, _, ok := BestDerivative(photo)
	assert.True(t, ok)
	for i := 0; i < 50; i++ {
		next, _, _ := BestDerivative(photo)
		assert.Equal(t, label, next)
	}
	assert.Equal(t, "0800", label)
}
