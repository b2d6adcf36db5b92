package models

// ConfigurationResolution is the answer to "which configuration is this serial".
// Unresolved results always carry a Warning.
type ConfigurationResolution struct {
	SerialNumber      string  `json:"serial_number"`
	Serial            int     `json:"serial,omitempty"`
	Resolved          bool    `json:"resolved"`
	ConfigurationCode string  `json:"configuration_code,omitempty"`
	ConfigurationName string  `json:"configuration_name,omitempty"`
	EffectivityCode   string  `json:"effectivity_code,omitempty"`
	SourceDocument    string  `json:"source_document,omitempty"`
	SourceRevision    string  `json:"source_revision,omitempty"`
	Notes             string  `json:"notes,omitempty"`
	Source            string  `json:"source,omitempty"`
	OverlappingRanges []int64 `json:"overlapping_ranges,omitempty"`
	Warning           string  `json:"warning,omitempty"`
}

// PartApplicability classifies part numbers for one configuration.
type PartApplicability struct {
	ConfigurationCode string   `json:"configuration_code"`
	Applicable        []string `json:"applicable"`
	NotApplicable     []string `json:"not_applicable"`
	Unknown           []string `json:"unknown"`
	Warning           string   `json:"warning,omitempty"`
}

type ApplicabilityStatus string

const (
	StatusApplicable    ApplicabilityStatus = "applicable"
	StatusNotApplicable ApplicabilityStatus = "not_applicable"
	StatusUnknown       ApplicabilityStatus = "unknown"
)

// CodeResult is the verdict for one effectivity token.
type CodeResult struct {
	Token                 string              `json:"token"`
	Code                  string              `json:"code"`
	Status                ApplicabilityStatus `json:"status"`
	Reason                string              `json:"reason,omitempty"`
	Description           string              `json:"description,omitempty"`
	IsConditional         bool                `json:"is_conditional"`
	ConditionalPartNumber string              `json:"conditional_part_number,omitempty"`
}

// CodeApplicability classifies effectivity tokens for one serial.
type CodeApplicability struct {
	SerialNumber      string       `json:"serial_number"`
	ConfigurationCode string       `json:"configuration_code,omitempty"`
	Revision          string       `json:"revision,omitempty"`
	Results           []CodeResult `json:"results"`
	Applicable        []string     `json:"applicable"`
	NotApplicable     []string     `json:"not_applicable"`
	Unknown           []string     `json:"unknown"`
	Warning           string       `json:"warning,omitempty"`
}

// SerialCode is one effectivity code whose ranges contain a serial.
type SerialCode struct {
	Code                  string `json:"code"`
	Description           string `json:"description"`
	IsConditional         bool   `json:"is_conditional"`
	ConditionalPartNumber string `json:"conditional_part_number,omitempty"`
}

type CodesForSerial struct {
	SerialNumber string       `json:"serial_number"`
	Revision     string       `json:"revision,omitempty"`
	Codes        []SerialCode `json:"codes"`
	Warning      string       `json:"warning,omitempty"`
}

// Add records one token verdict and files its code under the matching list.
func (c *CodeApplicability) Add(result CodeResult) {
	c.Results = append(c.Results, result)
	switch result.Status {
	case StatusApplicable:
		c.Applicable = append(c.Applicable, result.Code)
	case StatusNotApplicable:
		c.NotApplicable = append(c.NotApplicable, result.Code)
	default:
		c.Unknown = append(c.Unknown, result.Code)
	}
}
