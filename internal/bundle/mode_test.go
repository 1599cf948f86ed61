package bundle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Mode
	}{
		{name: "absent", input: "", expected: Development},
		{name: "explicit development", input: "development", expected: Development},
		{name: "production", input: "production", expected: Production},
		{name: "upper case production", input: "Production", expected: Development},
		{name: "padded production", input: " production", expected: Development},
		{name: "unknown", input: "staging", expected: Development},
		{name: "none", input: "none", expected: Development},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, ParseMode(tt.input))
		})
	}
}

func TestMode_IsDev(t *testing.T) {
	require.True(t, Development.IsDev())
	require.False(t, Production.IsDev())
	require.True(t, DefaultMode.IsDev())
}
