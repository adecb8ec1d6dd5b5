package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// blockSepRe splits a document on one or more blank lines.
	blockSepRe = regexp.MustCompile(`\n\s*\n`)

	solarIrradianceRe  = regexp.MustCompile(`(?i)Solar Irradiance[:\s]*([\d.]+)`)
	temperatureRe      = regexp.MustCompile(`(?i)Temperature[:\s]*([\d.]+)`)
	windSpeedRe        = regexp.MustCompile(`(?i)Wind Speed[:\s]*([\d.]+)`)
	cloudCoverRe       = regexp.MustCompile(`(?i)Cloud Cover[:\s]*([\d.]+)`)
	energyInputRe      = regexp.MustCompile(`(?i)Energy Input[:\s]*([\d.]+)`)
	reportedCapacityRe = regexp.MustCompile(`(?i)Plant Capacity[:\s]*([\d.]+)`)

	// locationRe is case-sensitive, unlike the numeric labels.
	locationRe = regexp.MustCompile(`Location[:\s]*([A-Za-z ]+)`)
)

// ExtractRecords parses document text into one record per block, in document
// order. Blocks without any numeric field are dropped. Text with no
// recognizable blocks yields an empty slice.
func ExtractRecords(text string) []ExtractedRecord {
	text = strings.TrimSpace(text)
	if text == "" {
		return []ExtractedRecord{}
	}

	blocks := blockSepRe.Split(text, -1)
	records := make([]ExtractedRecord, 0, len(blocks))
	for _, block := range blocks {
		rec := ParseBlock(strings.TrimSpace(block))
		if !rec.HasMeasurements() {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// ParseBlock extracts every known field from a single block.
func ParseBlock(block string) ExtractedRecord {
	return ExtractedRecord{
		SolarIrradiance:  matchFloat(solarIrradianceRe, block),
		Temperature:      matchFloat(temperatureRe, block),
		WindSpeed:        matchFloat(windSpeedRe, block),
		CloudCover:       matchInt(cloudCoverRe, block),
		EnergyInput:      matchInt(energyInputRe, block),
		ReportedCapacity: matchInt(reportedCapacityRe, block),
		Location:         matchLocation(block),
	}
}

// matchFloat returns nil when the label is missing or its value does not parse.
func matchFloat(re *regexp.Regexp, block string) *float64 {
	m := re.FindStringSubmatch(block)
	if len(m) != 2 {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

func matchInt(re *regexp.Regexp, block string) *int {
	m := re.FindStringSubmatch(block)
	if len(m) != 2 {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}

func matchLocation(block string) string {
	m := locationRe.FindStringSubmatch(block)
	if len(m) != 2 {
		return UnknownLocation
	}
	loc := strings.TrimSpace(m[1])
	if loc == "" {
		return UnknownLocation
	}
	return loc
}
