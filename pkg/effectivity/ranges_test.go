package effectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileRanges(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected []Range
	}{
		{
			name:     "explicit pair",
			lines:    []string{"S/N 31005 thru 31200"},
			expected: []Range{{Start: 31005, End: 31200}},
		},
		{
			name:     "colon after serial marker",
			lines:    []string{"S/N: 31005 thru 31200"},
			expected: []Range{{Start: 31005, End: 31200}},
		},
		{
			name:     "through spelled out",
			lines:    []string{"s/n 41001 through 41200"},
			expected: []Range{{Start: 41001, End: 41200}},
		},
		{
			name:     "repeated serial marker after thru",
			lines:    []string{"S/N 31005 thru S/N 31200"},
			expected: []Range{{Start: 31005, End: 31200}},
		},
		{
			name:     "thru TBD",
			lines:    []string{"S/N 31700 thru TBD"},
			expected: []Range{{Start: 31700, End: MaxSerial}},
		},
		{
			name:     "TBD thru",
			lines:    []string{"S/N TBD thru 31999"},
			expected: []Range{{Start: MinSerial, End: 31999}},
		},
		{
			name:     "and subsequent",
			lines:    []string{"S/N 41501 and subsequent"},
			expected: []Range{{Start: 41501, End: MaxSerial}},
		},
		{
			name:  "paired singles",
			lines: []string{"S/N 31005 and 31007"},
			expected: []Range{
				{Start: 31005, End: 31005},
				{Start: 31007, End: 31007},
			},
		},
		{
			name:  "paired singles with repeated marker",
			lines: []string{"S/N 31005 and S/N 31007"},
			expected: []Range{
				{Start: 31005, End: 31005},
				{Start: 31007, End: 31007},
			},
		},
		{
			name:  "single followed by its own thru range",
			lines: []string{"S/N 31001 and S/N 31500 thru 31600"},
			expected: []Range{
				{Start: 31500, End: 31600},
				{Start: 31001, End: 31001},
			},
		},
		{
			name:  "single followed by thru range without repeated marker",
			lines: []string{"S/N 31001 and 31500 thru 31600"},
			expected: []Range{
				{Start: 31500, End: 31600},
				{Start: 31001, End: 31001},
			},
		},
		{
			name:  "single followed by its own and subsequent",
			lines: []string{"S/N 31001 and S/N 31002 and subsequent"},
			expected: []Range{
				{Start: 31002, End: MaxSerial},
				{Start: 31001, End: 31001},
			},
		},
		{
			name:  "single followed by thru TBD",
			lines: []string{"S/N 31001 and S/N 31700 thru TBD"},
			expected: []Range{
				{Start: 31700, End: MaxSerial},
				{Start: 31001, End: 31001},
			},
		},
		{
			name:     "bare single",
			lines:    []string{"S/N 31300"},
			expected: []Range{{Start: 31300, End: 31300}},
		},
		{
			name:     "bare single already covered",
			lines:    []string{"S/N 31100", "S/N 31005 thru 31200"},
			expected: []Range{{Start: 31005, End: 31200}},
		},
		{
			name:  "bare single outside every range",
			lines: []string{"S/N 31005 thru 31200", "S/N 31300"},
			expected: []Range{
				{Start: 31005, End: 31200},
				{Start: 31300, End: 31300},
			},
		},
		{
			name: "mixed idioms on one code",
			lines: []string{
				"S/N 31005 thru 31200",
				"S/N 41001 and subsequent",
				"S/N 31250 and 31260",
			},
			expected: []Range{
				{Start: 31005, End: 31200},
				{Start: 41001, End: MaxSerial},
				{Start: 31250, End: 31250},
				{Start: 31260, End: 31260},
			},
		},
		{
			name:  "overlapping ranges are kept",
			lines: []string{"S/N 31700 and subsequent", "S/N 41501 and subsequent"},
			expected: []Range{
				{Start: 31700, End: MaxSerial},
				{Start: 41501, End: MaxSerial},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranges, warnings := CompileRanges(tt.lines)
			assert.Equal(t, tt.expected, ranges)
			assert.Empty(t, warnings)
		})
	}
}

func TestCompileRanges_NoLines(t *testing.T) {
	ranges, warnings := CompileRanges(nil)
	assert.Empty(t, ranges)
	assert.Empty(t, warnings)
}

func TestCompileRanges_InvertedPairSkipped(t *testing.T) {
	ranges, warnings := CompileRanges([]string{"S/N 31200 thru 31005", "S/N 41001 thru 41200"})

	assert.Equal(t, []Range{{Start: 41001, End: 41200}}, ranges)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "inverted range skipped")
}

func TestCompileRanges_SerialAboveCeilingSkipped(t *testing.T) {
	ranges, warnings := CompileRanges([]string{"S/N 3123456789", "S/N 31005 thru 312000", "S/N 41001 thru 41200"})

	assert.Equal(t, []Range{{Start: 41001, End: 41200}}, ranges)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "serial above 99999 skipped")
	assert.Contains(t, warnings[1], "S/N 31005 thru 312000")
}

func TestTokenize_AndHandsOffToRangePhrase(t *testing.T) {
	expressions, warnings := Tokenize("S/N 31001 and S/N 31500 thru 31600")
	require.Empty(t, warnings)
	require.Len(t, expressions, 2)

	assert.Equal(t, BareSingle, expressions[0].Kind)
	assert.Equal(t, "S/N 31001", expressions[0].Text)
	assert.Equal(t, ExplicitPair, expressions[1].Kind)
	assert.Equal(t, "S/N 31500 thru 31600", expressions[1].Text)
}

func TestCompileRanges_Warnings(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		warning string
	}{
		{name: "marker without serial", line: "S/N pending", warning: "serial marker without a serial number"},
		{name: "thru without end", line: "S/N 31005 thru", warning: "incomplete thru expression"},
		{name: "both sides TBD", line: "S/N TBD thru TBD", warning: "range with no known bound"},
		{name: "TBD and subsequent", line: "S/N TBD and subsequent", warning: "open range with no known start"},
		{name: "and without second serial", line: "S/N 31005 and later", warning: "incomplete and expression"},
		{name: "lone TBD", line: "S/N TBD", warning: "serial to be determined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranges, warnings := CompileRanges([]string{tt.line})
			assert.Empty(t, ranges)
			require.NotEmpty(t, warnings)
			assert.Contains(t, warnings[0], tt.warning)
		})
	}
}

func TestCompileRanges_PairsAreOrdered(t *testing.T) {
	for _, line := range []string{
		"S/N 1 thru 1",
		"S/N 31005 thru 31200",
		"S/N 69001 thru 69999",
		"S/N 100 thru 99999",
	} {
		ranges, _ := CompileRanges([]string{line})
		require.Len(t, ranges, 1, line)
		assert.LessOrEqual(t, ranges[0].Start, ranges[0].End, line)
	}
}

func TestTokenize_Kinds(t *testing.T) {
	expressions, warnings := Tokenize("S/N 1 thru 2, S/N 3 thru TBD; S/N TBD thru 4. S/N 5 and subsequent S/N 6 and 7 S/N 8")
	require.Empty(t, warnings)

	kinds := make([]ExpressionKind, 0, len(expressions))
	for _, expr := range expressions {
		kinds = append(kinds, expr.Kind)
	}
	assert.Equal(t, []ExpressionKind{ExplicitPair, ThruOpenEnded, OpenEndedThru, AndSubsequent, PairedSingles, BareSingle}, kinds)
	assert.Equal(t, "S/N 1 thru 2", expressions[0].Text)
	assert.Equal(t, "and_subsequent", expressions[3].Kind.String())
}

func TestRange(t *testing.T) {
	r := Range{Start: 31005, End: 31200}
	assert.True(t, r.Contains(31005))
	assert.True(t, r.Contains(31200))
	assert.False(t, r.Contains(31201))
	assert.False(t, r.IsOpenEnded())
	assert.Equal(t, "31005-31200", r.String())

	assert.True(t, Range{Start: 41501, End: MaxSerial}.IsOpenEnded())
	assert.Equal(t, "31300", Range{Start: 31300, End: 31300}.String())
}
