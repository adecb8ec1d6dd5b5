package domain

// UnknownLocation is attributed to blocks without a Location label.
const UnknownLocation = "Unknown"

// ExtractedRecord is one operating day parsed from a report block.
// Nil pointers mark fields the block did not contain.
type ExtractedRecord struct {
	SolarIrradiance  *float64 `json:"solar_irradiance"`
	Temperature      *float64 `json:"temperature"`
	WindSpeed        *float64 `json:"wind_speed"`
	CloudCover       *int     `json:"cloud_cover"`
	EnergyInput      *int     `json:"energy_input"`
	ReportedCapacity *int     `json:"reported_capacity"`
	Location         string   `json:"location"`
}

// HasMeasurements reports whether any field other than the location was found.
func (r ExtractedRecord) HasMeasurements() bool {
	return r.SolarIrradiance != nil ||
		r.Temperature != nil ||
		r.WindSpeed != nil ||
		r.CloudCover != nil ||
		r.EnergyInput != nil ||
		r.ReportedCapacity != nil
}

// Status is the audit verdict for one record.
type Status string

const (
	StatusIrradianceOutOfRange    Status = "IrradianceOutOfRange"
	StatusUnderproductionPossible Status = "UnderproductionPossible"
	StatusSuspicious              Status = "Suspicious"
	StatusNormal                  Status = "Normal"
	// StatusUnknown is used when the block has no reported capacity to compare.
	StatusUnknown Status = "Unknown"
)

// Statuses lists every verdict in display order.
var Statuses = []Status{
	StatusNormal,
	StatusSuspicious,
	StatusUnderproductionPossible,
	StatusIrradianceOutOfRange,
	StatusUnknown,
}

// Description returns the operator-facing wording for the verdict.
func (s Status) Description() string {
	switch s {
	case StatusIrradianceOutOfRange:
		return "Error: Irradiance Out of Range"
	case StatusUnderproductionPossible:
		return "Reported Lower (Possible Loss/Underproduction)"
	case StatusSuspicious:
		return "Suspicious"
	case StatusNormal:
		return "Normal"
	case StatusUnknown:
		return "Unknown: No Reported Capacity"
	default:
		return string(s)
	}
}

// ClassifiedResult is the published audit outcome for one record.
type ClassifiedResult struct {
	Location          string   `json:"Location"`
	ReportedCapacity  *int     `json:"Reported_Capacity"`
	PredictedCapacity *float64 `json:"Predicted_Capacity"`
	Status            Status   `json:"Status"`
}
