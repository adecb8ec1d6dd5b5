package domain

import "math"

const (
	// IrradianceMin and IrradianceMax bound the viable solar irradiance range
	// in kWh/m². Both bounds are inclusive.
	IrradianceMin = 2.0
	IrradianceMax = 7.0

	// UnderproductionRatio is the fraction of predicted capacity below which a
	// reported value is treated as possible operational loss.
	UnderproductionRatio = 0.7

	// DefaultTolerance is the accepted relative gap between predicted and
	// reported capacity before a record is flagged suspicious.
	DefaultTolerance = 0.2
)

// IrradianceOutOfRange reports whether a present irradiance lies outside the
// viable range. An absent value passes the gate.
func IrradianceOutOfRange(irradiance *float64) bool {
	if irradiance == nil {
		return false
	}
	return *irradiance < IrradianceMin || *irradiance > IrradianceMax
}

// Classify maps an irradiance reading and a reported/predicted capacity pair
// to an audit verdict. The branches are evaluated in order:
//   - irradiance outside the viable range: IrradianceOutOfRange
//   - no reported capacity: Unknown
//   - reported below UnderproductionRatio of predicted: UnderproductionPossible
//   - gap wider than tolerance*reported: Suspicious
//   - otherwise: Normal
func Classify(irradiance *float64, reported *int, predicted, tolerance float64) Status {
	if IrradianceOutOfRange(irradiance) {
		return StatusIrradianceOutOfRange
	}
	if reported == nil {
		return StatusUnknown
	}

	r := float64(*reported)
	switch {
	case r < predicted*UnderproductionRatio:
		return StatusUnderproductionPossible
	case math.Abs(predicted-r) > tolerance*r:
		return StatusSuspicious
	default:
		return StatusNormal
	}
}
