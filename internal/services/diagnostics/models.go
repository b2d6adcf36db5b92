package diagnostics

import "github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"

// Request is the payload forwarded to the AI diagnostic service.
type Request struct {
	Query                 string `json:"query" validate:"required"`
	SerialNumber          string `json:"serial_number,omitempty"`
	ATACode               string `json:"ata_code,omitempty"`
	TaskType              string `json:"task_type,omitempty"`
	AircraftConfiguration string `json:"aircraft_configuration,omitempty"`
	ConfigurationName     string `json:"configuration_name,omitempty"`
}

type AffectedPart struct {
	PartNumber    string                     `json:"part_number"`
	Description   string                     `json:"description"`
	Location      string                     `json:"location"`
	Action        string                     `json:"action"`
	Applicability models.ApplicabilityStatus `json:"applicability,omitempty"`
}

type LikelyCause struct {
	Cause       string `json:"cause"`
	Probability int    `json:"probability"`
	Reasoning   string `json:"reasoning"`
}

type RecommendedTest struct {
	Step           int    `json:"step"`
	Description    string `json:"description"`
	Reference      string `json:"reference"`
	ExpectedResult string `json:"expected_result"`
}

// Response is the diagnostic service answer with the effectivity annotation added.
type Response struct {
	Query            string                 `json:"query"`
	SerialNumber     string                 `json:"serial_number,omitempty"`
	Diagnosis        string                 `json:"diagnosis"`
	ATAChapter       string                 `json:"ata_chapter,omitempty"`
	CertaintyScore   int                    `json:"certainty_score"`
	CertaintyStatus  string                 `json:"certainty_status"`
	AffectedParts    []AffectedPart         `json:"affected_parts"`
	LikelyCauses     []LikelyCause          `json:"likely_causes"`
	RecommendedTests []RecommendedTest      `json:"recommended_tests"`
	References       []string               `json:"references"`
	SupervisorNotes  string                 `json:"supervisor_notes,omitempty"`
	Source           string                 `json:"source,omitempty"`
	ProcessingTimeMS float64                `json:"processing_time_ms"`
	Effectivity      *EffectivityAnnotation `json:"effectivity,omitempty"`
}

// EffectivityAnnotation carries the resolver output that travelled with a diagnosis.
type EffectivityAnnotation struct {
	Configuration models.ConfigurationResolution `json:"configuration"`
	Parts         *models.PartApplicability      `json:"parts,omitempty"`
	Warnings      []string                       `json:"warnings,omitempty"`
}
