package effectivity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MinSerial is the floor used for "S/N TBD thru <b>" expressions.
	MinSerial = 1
	// MaxSerial is the ceiling used for open-ended expressions. It is higher than any
	// serial the fleet will realistically reach.
	MaxSerial = 99999
)

// Range is an inclusive serial-number interval.
type Range struct {
	Start int `json:"serial_start" yaml:"serial_start"`
	End   int `json:"serial_end" yaml:"serial_end"`
}

// Contains reports whether serial falls inside the range (inclusive).
func (r Range) Contains(serial int) bool {
	return serial >= r.Start && serial <= r.End
}

// IsOpenEnded reports whether the range runs to the sentinel ceiling.
func (r Range) IsOpenEnded() bool {
	return r.End >= MaxSerial
}

func (r Range) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// ExpressionKind identifies one serial-range idiom.
type ExpressionKind int

const (
	// ExplicitPair is "S/N a thru b".
	ExplicitPair ExpressionKind = iota
	// ThruOpenEnded is "S/N a thru TBD".
	ThruOpenEnded
	// OpenEndedThru is "S/N TBD thru b".
	OpenEndedThru
	// AndSubsequent is "S/N a and subsequent".
	AndSubsequent
	// PairedSingles is "S/N a and b".
	PairedSingles
	// BareSingle is a lone "S/N n".
	BareSingle
)

func (k ExpressionKind) String() string {
	switch k {
	case ExplicitPair:
		return "explicit_pair"
	case ThruOpenEnded:
		return "thru_open_ended"
	case OpenEndedThru:
		return "open_ended_thru"
	case AndSubsequent:
		return "and_subsequent"
	case PairedSingles:
		return "paired_singles"
	case BareSingle:
		return "bare_single"
	default:
		return "unknown"
	}
}

// Expression is one recognized range idiom. First and Second hold the serials the idiom
// names; TBD sides are left at zero.
type Expression struct {
	Kind   ExpressionKind
	First  int
	Second int
	Text   string
}

type tokenKind int

const (
	tokSerialMarker tokenKind = iota
	tokNumber
	tokTBD
	tokThru
	tokAnd
	tokSubsequent
	tokWord
)

type token struct {
	kind  tokenKind
	text  string
	value int
	start int
	end   int
}

// S/N first so it wins over the word alternative at the same offset.
var tokenPattern = regexp.MustCompile(`(?i)(s\s*/\s*n)|([a-z0-9]*[a-z][a-z0-9]*)|(\d+)`)

func tokenize(text string) []token {
	matches := tokenPattern.FindAllStringSubmatchIndex(text, -1)
	tokens := make([]token, 0, len(matches))

	for _, m := range matches {
		tok := token{start: m[0], end: m[1], text: text[m[0]:m[1]]}
		switch {
		case m[2] >= 0:
			tok.kind = tokSerialMarker
		case m[4] >= 0:
			switch strings.ToLower(tok.text) {
			case "tbd":
				tok.kind = tokTBD
			case "thru", "through":
				tok.kind = tokThru
			case "and":
				tok.kind = tokAnd
			case "subsequent":
				tok.kind = tokSubsequent
			default:
				tok.kind = tokWord
			}
		default:
			n, err := strconv.Atoi(tok.text)
			if err != nil {
				// digit runs too long for an int are never serials
				tok.kind = tokWord
				break
			}
			tok.kind = tokNumber
			tok.value = n
		}
		tokens = append(tokens, tok)
	}

	return tokens
}

// Tokenize scans range text once and returns the recognized expressions in order, plus
// a warning for every "S/N" fragment that did not form a complete expression.
func Tokenize(text string) ([]Expression, []string) {
	tokens := tokenize(text)
	var expressions []Expression
	var warnings []string

	at := func(i int) (token, bool) {
		if i < len(tokens) {
			return tokens[i], true
		}
		return token{}, false
	}
	// operand returns the serial (or TBD) at i, skipping a repeated S/N.
	operand := func(i int) (token, int, bool) {
		tok, ok := at(i)
		if ok && tok.kind == tokSerialMarker {
			i++
			tok, ok = at(i)
		}
		if !ok || (tok.kind != tokNumber && tok.kind != tokTBD) {
			return token{}, i, false
		}
		return tok, i + 1, true
	}
	fragment := func(from, to int) string {
		if to > len(tokens) {
			to = len(tokens)
		}
		if to <= from {
			to = from + 1
		}
		return strings.TrimSpace(text[tokens[from].start:tokens[to-1].end])
	}

	// startsRange reports whether the tokens at i open a thru or "and subsequent" phrase.
	startsRange := func(i int) bool {
		link, ok := at(i)
		if !ok {
			return false
		}
		if link.kind == tokThru {
			return true
		}
		tail, ok := at(i + 1)
		return link.kind == tokAnd && ok && tail.kind == tokSubsequent
	}

	i := 0
	// resume is set when the operand at i was handed back by an "and" whose second
	// serial opens its own range phrase.
	resume := false
	for i < len(tokens) {
		if !resume && tokens[i].kind != tokSerialMarker {
			i++
			continue
		}
		start := i
		operandAt := i + 1
		if resume {
			operandAt = i
			resume = false
		}

		first, next, ok := operand(operandAt)
		if !ok || (operandAt == i+1 && i+1 < len(tokens) && tokens[i+1].kind == tokSerialMarker) {
			warnings = append(warnings, fmt.Sprintf("serial marker without a serial number: %q", fragment(start, start+2)))
			i++
			continue
		}

		link, hasLink := at(next)
		switch {
		case hasLink && link.kind == tokThru:
			second, after, ok := operand(next + 1)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("incomplete thru expression: %q", fragment(start, next+1)))
				i = next + 1
				continue
			}
			raw := fragment(start, after)
			switch {
			case first.kind == tokNumber && second.kind == tokNumber:
				expressions = append(expressions, Expression{Kind: ExplicitPair, First: first.value, Second: second.value, Text: raw})
			case first.kind == tokNumber && second.kind == tokTBD:
				expressions = append(expressions, Expression{Kind: ThruOpenEnded, First: first.value, Text: raw})
			case first.kind == tokTBD && second.kind == tokNumber:
				expressions = append(expressions, Expression{Kind: OpenEndedThru, Second: second.value, Text: raw})
			default:
				warnings = append(warnings, fmt.Sprintf("range with no known bound: %q", raw))
			}
			i = after

		case hasLink && link.kind == tokAnd:
			tail, ok := at(next + 1)
			if ok && tail.kind == tokSubsequent {
				raw := fragment(start, next+2)
				if first.kind == tokNumber {
					expressions = append(expressions, Expression{Kind: AndSubsequent, First: first.value, Text: raw})
				} else {
					warnings = append(warnings, fmt.Sprintf("open range with no known start: %q", raw))
				}
				i = next + 2
				continue
			}

			second, after, ok := operand(next + 1)
			if ok && startsRange(after) {
				// "S/N a and S/N b thru c": a stands alone and b opens the next expression.
				if first.kind == tokNumber {
					expressions = append(expressions, Expression{Kind: BareSingle, First: first.value, Text: fragment(start, next)})
				} else {
					warnings = append(warnings, fmt.Sprintf("serial to be determined: %q", fragment(start, next)))
				}
				i = next + 1
				if tokens[i].kind != tokSerialMarker {
					resume = true
				}
				continue
			}
			if !ok || first.kind != tokNumber || second.kind != tokNumber {
				warnings = append(warnings, fmt.Sprintf("incomplete and expression: %q", fragment(start, next+1)))
				i = next + 1
				continue
			}
			expressions = append(expressions, Expression{Kind: PairedSingles, First: first.value, Second: second.value, Text: fragment(start, after)})
			i = after

		default:
			if first.kind == tokNumber {
				expressions = append(expressions, Expression{Kind: BareSingle, First: first.value, Text: fragment(start, next)})
			} else {
				warnings = append(warnings, fmt.Sprintf("serial to be determined: %q", fragment(start, next)))
			}
			i = next
		}
	}

	return expressions, warnings
}

// CompileRanges turns the raw range lines of one code into inclusive intervals.
// Bare singles are resolved after every other idiom and are dropped when a range of
// the same code already covers them.
func CompileRanges(lines []string) ([]Range, []string) {
	if len(lines) == 0 {
		return nil, nil
	}

	expressions, warnings := Tokenize(strings.Join(lines, " "))

	ranges := make([]Range, 0, len(expressions))
	var singles []Expression
	for _, expr := range expressions {
		if expr.First > MaxSerial || expr.Second > MaxSerial {
			warnings = append(warnings, fmt.Sprintf("serial above %d skipped: %q", MaxSerial, expr.Text))
			continue
		}
		switch expr.Kind {
		case ExplicitPair:
			if expr.First > expr.Second {
				warnings = append(warnings, fmt.Sprintf("inverted range skipped: %q", expr.Text))
				continue
			}
			ranges = append(ranges, Range{Start: expr.First, End: expr.Second})
		case ThruOpenEnded, AndSubsequent:
			ranges = append(ranges, Range{Start: expr.First, End: MaxSerial})
		case OpenEndedThru:
			ranges = append(ranges, Range{Start: MinSerial, End: expr.Second})
		case PairedSingles:
			ranges = append(ranges,
				Range{Start: expr.First, End: expr.First},
				Range{Start: expr.Second, End: expr.Second},
			)
		case BareSingle:
			singles = append(singles, expr)
		}
	}

	for _, expr := range singles {
		if covered(ranges, expr.First) {
			continue
		}
		ranges = append(ranges, Range{Start: expr.First, End: expr.First})
	}

	return ranges, warnings
}

func covered(ranges []Range, serial int) bool {
	for _, r := range ranges {
		if r.Contains(serial) {
			return true
		}
	}
	return false
}
