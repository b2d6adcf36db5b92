package models

// AircraftConfiguration is a named production variant of the airframe.
type AircraftConfiguration struct {
	Code        string `json:"code" yaml:"code" validate:"required,effcode"`
	Name        string `json:"name" yaml:"name" validate:"required"`
	Description string `json:"description" yaml:"description"`
}

// SerialEffectivity maps a curated serial interval to a configuration. Rows are scanned
// in ID order.
type SerialEffectivity struct {
	ID                int64  `json:"id" yaml:"id,omitempty"`
	SerialStart       int    `json:"serial_start" yaml:"serial_start" validate:"required,min=1"`
	SerialEnd         int    `json:"serial_end" yaml:"serial_end" validate:"required,gtefield=SerialStart"`
	ConfigurationCode string `json:"configuration_code" yaml:"configuration_code" validate:"required"`
	EffectivityCode   string `json:"effectivity_code" yaml:"effectivity_code"`
	SourceDocument    string `json:"source_document" yaml:"source_document"`
	SourceRevision    string `json:"source_revision" yaml:"source_revision"`
	Notes             string `json:"notes" yaml:"notes"`
}

func (s SerialEffectivity) Contains(serial int) bool {
	return serial >= s.SerialStart && serial <= s.SerialEnd
}

// PartEffectivity records whether a part applies to a configuration. A missing row means
// unknown, never not applicable.
type PartEffectivity struct {
	PartNumber        string `json:"part_number" yaml:"part_number" validate:"required"`
	ConfigurationCode string `json:"configuration_code" yaml:"configuration_code" validate:"required"`
	IsApplicable      bool   `json:"is_applicable" yaml:"is_applicable"`
	Notes             string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// CuratedDataset is the hand-authored reference data imported from YAML.
type CuratedDataset struct {
	Configurations      []AircraftConfiguration `json:"configurations" yaml:"configurations" validate:"dive"`
	SerialEffectivities []SerialEffectivity     `json:"serial_effectivities" yaml:"serial_effectivities" validate:"dive"`
	PartEffectivities   []PartEffectivity       `json:"part_effectivities" yaml:"part_effectivities" validate:"dive"`
}

type CuratedImportResult struct {
	Configurations      int `json:"configurations"`
	SerialEffectivities int `json:"serial_effectivities"`
	PartEffectivities   int `json:"part_effectivities"`
}
