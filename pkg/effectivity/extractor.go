// Package effectivity parses a manufacturer's list of effectivity codes into exact
// serial-number interval rules.
//
// The document is line oriented. A line "*<CODE>" opens a section that runs to the next
// marker or the end of the document. An optional preamble ends at a "NO CODE" sentinel
// line, which stands for an implicit ALL code covering every serial. Lines mentioning
// "S/N" carry range expressions; everything else is description text.
package effectivity

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	// AllCode is emitted for the "NO CODE" sentinel.
	AllCode = "ALL"
	// WarningNoRanges is attached to an active code that compiled to zero ranges.
	WarningNoRanges = "no serial ranges compiled for active code"

	allDescription = "All serial numbers"
	sentinel       = "NO CODE"
	maxLineSize    = 1024 * 1024
)

var (
	markerPattern      = regexp.MustCompile(`^\*([A-Za-z0-9]{1,8})(?:\s+(.*))?$`)
	serialLinePattern  = regexp.MustCompile(`(?i)\bs\s*/\s*n\b`)
	conditionalPattern = regexp.MustCompile(`(?i)\b(that\s+have|that\s+install|equipped\s+with|certified\s+by)\b`)
	partNumberPattern  = regexp.MustCompile(`(?i)\bP\s*/\s*N\s*:?\s*([A-Z0-9][A-Z0-9-]*)`)
)

// ParsedCode is one code section of an effectivity document.
type ParsedCode struct {
	Code                  string   `json:"code" yaml:"code"`
	Description           string   `json:"description" yaml:"description"`
	IsDeleted             bool     `json:"is_deleted" yaml:"is_deleted"`
	IsConditional         bool     `json:"is_conditional" yaml:"is_conditional"`
	ConditionalPartNumber string   `json:"conditional_part_number,omitempty" yaml:"conditional_part_number,omitempty"`
	RangeLines            []string `json:"range_lines,omitempty" yaml:"range_lines,omitempty"`
	Ranges                []Range  `json:"ranges" yaml:"ranges"`
	Warnings              []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Line                  int      `json:"line" yaml:"line"`
}

// Document is the ordered result of parsing one effectivity document. Codes keeps
// document order and may contain the same code more than once.
type Document struct {
	Codes []ParsedCode `json:"codes" yaml:"codes"`
}

// DistinctCodeCount returns the number of distinct codes.
func (d *Document) DistinctCodeCount() int {
	seen := make(map[string]struct{}, len(d.Codes))
	for _, c := range d.Codes {
		seen[c.Code] = struct{}{}
	}
	return len(seen)
}

// RangeCount returns the number of ranges across every parsed entry, duplicates included.
func (d *Document) RangeCount() int {
	total := 0
	for _, c := range d.Codes {
		total += len(c.Ranges)
	}
	return total
}

// Dedupe returns the codes with later repeats of a code removed (first occurrence wins).
func (d *Document) Dedupe() []ParsedCode {
	seen := make(map[string]struct{}, len(d.Codes))
	out := make([]ParsedCode, 0, len(d.Codes))
	for _, c := range d.Codes {
		if _, ok := seen[c.Code]; ok {
			continue
		}
		seen[c.Code] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Duplicates returns every code that appears more than once, in first-seen order.
func (d *Document) Duplicates() []string {
	counts := make(map[string]int, len(d.Codes))
	var order []string
	for _, c := range d.Codes {
		if counts[c.Code] == 0 {
			order = append(order, c.Code)
		}
		counts[c.Code]++
	}
	var dups []string
	for _, code := range order {
		if counts[code] > 1 {
			dups = append(dups, code)
		}
	}
	return dups
}

// Warnings flattens the per-code warnings, prefixed by code.
func (d *Document) Warnings() []string {
	var out []string
	for _, c := range d.Codes {
		for _, w := range c.Warnings {
			out = append(out, fmt.Sprintf("%s (line %d): %s", c.Code, c.Line, w))
		}
	}
	return out
}

type accumulator struct {
	code  string
	line  int
	lines []string
}

// Parse reads an effectivity document in a single pass.
func Parse(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	doc := &Document{}
	var current *accumulator
	seenMarker := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "-" || line == ":" {
			continue
		}

		// "*NO CODE" would otherwise read as a marker for code NO.
		if !seenMarker && isSentinel(line) {
			doc.Codes = append(doc.Codes, ParsedCode{
				Code:        AllCode,
				Description: allDescription,
				Ranges:      []Range{{Start: MinSerial, End: MaxSerial}},
				Line:        lineNo,
			})
			seenMarker = true
			continue
		}

		if m := markerPattern.FindStringSubmatch(line); m != nil {
			if current != nil {
				doc.Codes = append(doc.Codes, flush(current))
			}
			current = &accumulator{code: strings.ToUpper(m[1]), line: lineNo}
			if rest := strings.TrimSpace(m[2]); rest != "" {
				current.lines = append(current.lines, rest)
			}
			seenMarker = true
			continue
		}

		if current != nil {
			current.lines = append(current.lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read effectivity document: %w", err)
	}

	if current != nil {
		doc.Codes = append(doc.Codes, flush(current))
	}

	return doc, nil
}

// ParseString parses an in-memory document.
func ParseString(text string) (*Document, error) {
	return Parse(strings.NewReader(text))
}

func isSentinel(line string) bool {
	return strings.EqualFold(strings.TrimSpace(strings.Trim(line, "*:- \t")), sentinel)
}

func flush(acc *accumulator) ParsedCode {
	var descLines, rangeLines []string
	for _, raw := range acc.lines {
		line := strings.TrimSpace(strings.TrimLeft(raw, ":- \t"))
		if line == "" {
			continue
		}
		if serialLinePattern.MatchString(line) {
			rangeLines = append(rangeLines, line)
			continue
		}
		descLines = append(descLines, line)
	}

	description := strings.Join(descLines, " ")
	if description == "" {
		// a code is never left without a description
		description = strings.Join(rangeLines, " ")
	}

	parsed := ParsedCode{
		Code:        acc.code,
		Description: description,
		RangeLines:  rangeLines,
		Line:        acc.line,
	}

	parsed.IsDeleted = strings.EqualFold(strings.TrimSpace(description), "deleted")
	if parsed.IsDeleted {
		parsed.Ranges = []Range{}
		return parsed
	}

	if conditionalPattern.MatchString(description) {
		parsed.IsConditional = true
		if m := partNumberPattern.FindStringSubmatch(description); m != nil {
			parsed.ConditionalPartNumber = strings.ToUpper(strings.TrimRight(m[1], "-"))
		}
	}

	ranges, warnings := CompileRanges(rangeLines)
	if ranges == nil {
		ranges = []Range{}
	}
	parsed.Ranges = ranges
	parsed.Warnings = warnings
	if len(ranges) == 0 {
		parsed.Warnings = append(parsed.Warnings, WarningNoRanges)
	}

	return parsed
}
