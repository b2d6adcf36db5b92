package effectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSerial(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		valid    bool
	}{
		{input: "31050", expected: 31050, valid: true},
		{input: " 31-050 ", expected: 31050, valid: true},
		{input: "S/N 41287", expected: 41287, valid: true},
		{input: "", valid: false},
		{input: "unknown", valid: false},
		{input: "0000", valid: false},
		{input: "99999999999999999999999", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := ParseSerial(tt.input)
			if !tt.valid {
				assert.ErrorIs(t, err, ErrInvalidSerial)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, n)
		})
	}
}

func TestFamilyForToken(t *testing.T) {
	tests := []struct {
		token  string
		family string
		ok     bool
	}{
		{token: "SN", family: ShortNose, ok: true},
		{token: "*ln", family: LongNose, ok: true},
		{token: "EN", family: Enhanced, ok: true},
		{token: "ENH", family: Enhanced, ok: true},
		{token: " *EP", family: Plus, ok: true},
		{token: "PLUS", family: Plus, ok: true},
		{token: "A8", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			family, ok := FamilyForToken(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.family, family)
		})
	}
}
