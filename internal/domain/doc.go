// Package domain models daily hydrogen-plant operating records and the
// capacity audit verdicts derived from them.
//
// # Report Format
//
// Operators submit a PDF whose text layer holds one block per operating day.
// Blocks are separated by one or more blank lines and contain loosely labeled
// "Key: value" lines in any order:
//
//	Solar Irradiance: 5.2
//	Temperature: 30
//	Wind Speed: 4.5
//	Cloud Cover: 20
//	Energy Input: 200
//	Plant Capacity: 150
//	Location: Texas
//
// Units follow the training dataset: irradiance in kWh/m², temperature in °C,
// wind speed in m/s, cloud cover in percent, energy input in kW and plant
// capacity in kg/day.
//
// # Field Matching
//
// Numeric labels are matched case-insensitively and capture the first run of
// digits and dots after the label. Signs are not part of the capture, so a
// value such as "-5" is not recognized. Cloud cover, energy input and plant
// capacity are integers; decimal text for those fields is treated as absent,
// as is any capture that does not parse ("5.2.1").
//
// The Location label is matched case-sensitively and captures letters and
// spaces only. A block without it is attributed to [UnknownLocation].
//
// Blocks where no numeric field matched are dropped.
//
// # Classification
//
// Each record is audited against the capacity predicted from its
// environmental inputs, see [Classify]:
//
//	irradiance outside [2, 7] kWh/m²      IrradianceOutOfRange (no prediction published)
//	no reported capacity                  Unknown
//	reported < 70% of predicted           UnderproductionPossible
//	|predicted - reported| > tol*reported Suspicious
//	otherwise                             Normal
//
// Underproduction is checked before the tolerance band, so a large shortfall
// is always reported as possible loss, never as suspicious.
package domain
