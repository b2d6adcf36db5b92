package seeding

import (
	"fmt"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/effectivity"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
)

// Plan is what one document turns into before it is persisted.
type Plan struct {
	Codes          []models.EffectivityCode
	Ranges         []models.SerialRange
	Warnings       []models.DataQualityWarning
	ExpectedCodes  int
	ExpectedRanges int
}

// BuildPlan dedupes codes (first occurrence wins) and flattens the ranges of every
// parsed entry. A code whose kept entry is deleted owns no ranges, even when a later
// repeat of it carried some.
func BuildPlan(doc *effectivity.Document) *Plan {
	deduped := doc.Dedupe()

	plan := &Plan{
		Codes:         make([]models.EffectivityCode, 0, len(deduped)),
		ExpectedCodes: len(deduped),
	}

	deleted := make(map[string]bool, len(deduped))
	for _, c := range deduped {
		deleted[c.Code] = c.IsDeleted
		plan.Codes = append(plan.Codes, models.EffectivityCode{
			Code:                  c.Code,
			Description:           c.Description,
			IsDeleted:             c.IsDeleted,
			IsConditional:         c.IsConditional,
			ConditionalPartNumber: c.ConditionalPartNumber,
		})
	}

	for _, c := range doc.Codes {
		if deleted[c.Code] {
			continue
		}
		for _, r := range c.Ranges {
			plan.Ranges = append(plan.Ranges, models.SerialRange{
				Code:        c.Code,
				SerialStart: r.Start,
				SerialEnd:   r.End,
			})
		}
	}
	plan.ExpectedRanges = len(plan.Ranges)

	for _, c := range doc.Codes {
		for _, w := range c.Warnings {
			kind := models.WarningUnparsedFragment
			if w == effectivity.WarningNoRanges {
				kind = models.WarningEmptyCode
			}
			plan.Warnings = append(plan.Warnings, models.DataQualityWarning{
				Kind:    kind,
				Code:    c.Code,
				Line:    c.Line,
				Message: w,
			})
		}
	}

	for _, code := range doc.Duplicates() {
		plan.Warnings = append(plan.Warnings, models.DataQualityWarning{
			Kind:    models.WarningDuplicateCode,
			Code:    code,
			Message: fmt.Sprintf("code %s appears more than once; the first occurrence is kept", code),
		})
	}

	return plan
}

// Preview is a dry-run parse report.
type Preview struct {
	Codes         []effectivity.ParsedCode    `json:"codes" yaml:"codes"`
	DistinctCodes int                         `json:"distinct_codes" yaml:"distinct_codes"`
	Ranges        int                         `json:"ranges" yaml:"ranges"`
	Duplicates    []string                    `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	Warnings      []models.DataQualityWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewPreview parses text without persisting anything.
func NewPreview(text string) (*Preview, error) {
	doc, err := effectivity.ParseString(text)
	if err != nil {
		return nil, err
	}
	plan := BuildPlan(doc)
	return &Preview{
		Codes:         doc.Codes,
		DistinctCodes: plan.ExpectedCodes,
		Ranges:        plan.ExpectedRanges,
		Duplicates:    doc.Duplicates(),
		Warnings:      plan.Warnings,
	}, nil
}
