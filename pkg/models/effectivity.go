package models

import "time"

// EffectivityCode is one persisted code of a seeded revision.
type EffectivityCode struct {
	RevisionID            int64  `json:"revision_id"`
	Code                  string `json:"code"`
	Description           string `json:"description"`
	IsDeleted             bool   `json:"is_deleted"`
	IsConditional         bool   `json:"is_conditional"`
	ConditionalPartNumber string `json:"conditional_part_number,omitempty"`
}

// SerialRange is an inclusive serial interval owned by a code.
type SerialRange struct {
	RevisionID  int64  `json:"revision_id"`
	Code        string `json:"code"`
	SerialStart int    `json:"serial_start"`
	SerialEnd   int    `json:"serial_end"`
}

func (r SerialRange) Contains(serial int) bool {
	return serial >= r.SerialStart && serial <= r.SerialEnd
}

// Revision is one seeded generation of the effectivity document. Exactly one revision
// is current at a time.
type Revision struct {
	ID             int64      `json:"id"`
	Revision       string     `json:"revision"`
	SourceDocument string     `json:"source_document"`
	CodeCount      int        `json:"code_count"`
	RangeCount     int        `json:"range_count"`
	WarningCount   int        `json:"warning_count"`
	IsCurrent      bool       `json:"is_current"`
	CreatedAt      time.Time  `json:"created_at"`
	ActivatedAt    *time.Time `json:"activated_at,omitempty"`
}

// DataQualityWarning is a finding raised while seeding a revision.
type DataQualityWarning struct {
	Kind    string `json:"kind"`
	Code    string `json:"code,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

const (
	WarningEmptyCode        = "empty_code"
	WarningUnparsedFragment = "unparsed_fragment"
	WarningDuplicateCode    = "duplicate_code"
)

// SeedRequest asks for a document to be seeded under a revision label. Non-zero
// expected counts override the counts computed from the document.
type SeedRequest struct {
	Revision       string `json:"revision" validate:"required,max=64"`
	SourceDocument string `json:"source_document" validate:"max=256"`
	Document       string `json:"document" validate:"required"`
	ExpectedCodes  int    `json:"expected_codes" validate:"min=0"`
	ExpectedRanges int    `json:"expected_ranges" validate:"min=0"`
}

// SeedResult reports what a seeding run did.
type SeedResult struct {
	Revision       *Revision            `json:"revision,omitempty"`
	Skipped        bool                 `json:"skipped"`
	ExpectedCodes  int                  `json:"expected_codes"`
	ExpectedRanges int                  `json:"expected_ranges"`
	Warnings       []DataQualityWarning `json:"warnings"`
}
