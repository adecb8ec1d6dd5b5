package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `Solar Irradiance: 5.2
Temperature: 30
Energy Input: 200
Plant Capacity: 150
Location: Texas

`

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestExtractRecords(t *testing.T) {
	t.Run("single block", func(t *testing.T) {
		records := ExtractRecords(sampleReport)

		require.Len(t, records, 1)
		want := ExtractedRecord{
			SolarIrradiance:  floatPtr(5.2),
			Temperature:      floatPtr(30),
			EnergyInput:      intPtr(200),
			ReportedCapacity: intPtr(150),
			Location:         "Texas",
		}
		if diff := cmp.Diff(want, records[0]); diff != "" {
			t.Errorf("record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("multiple blocks keep document order", func(t *testing.T) {
		text := "Plant Capacity: 100\nLocation: Texas\n\n\n" +
			"Plant Capacity: 200\nLocation: Arizona\n  \n" +
			"Plant Capacity: 300\nLocation: Nevada"

		records := ExtractRecords(text)

		require.Len(t, records, 3)
		assert.Equal(t, 100, *records[0].ReportedCapacity)
		assert.Equal(t, "Texas", records[0].Location)
		assert.Equal(t, 200, *records[1].ReportedCapacity)
		assert.Equal(t, "Arizona", records[1].Location)
		assert.Equal(t, 300, *records[2].ReportedCapacity)
		assert.Equal(t, "Nevada", records[2].Location)
	})

	t.Run("empty document", func(t *testing.T) {
		records := ExtractRecords("")
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("whitespace only document", func(t *testing.T) {
		assert.Empty(t, ExtractRecords(" \n\n\t\n "))
	})

	t.Run("blocks without measurements are dropped", func(t *testing.T) {
		text := "Daily Operations Report\nPrepared by plant staff\n\n" +
			"Temperature: 25\n\n" +
			"Location: Texas\n\n" +
			"Signed: operator"

		records := ExtractRecords(text)

		require.Len(t, records, 1)
		assert.Equal(t, 25.0, *records[0].Temperature)
		assert.Equal(t, UnknownLocation, records[0].Location)
	})
}

func TestParseBlock_AllFields(t *testing.T) {
	block := "Solar Irradiance: 4.75\nTemperature: 28.5\nWind Speed: 3.2\n" +
		"Cloud Cover: 40\nEnergy Input: 180\nPlant Capacity: 120\nLocation: New Mexico"

	rec := ParseBlock(block)

	want := ExtractedRecord{
		SolarIrradiance:  floatPtr(4.75),
		Temperature:      floatPtr(28.5),
		WindSpeed:        floatPtr(3.2),
		CloudCover:       intPtr(40),
		EnergyInput:      intPtr(180),
		ReportedCapacity: intPtr(120),
		Location:         "New Mexico",
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestParseBlock_NumericLabelsIgnoreCase(t *testing.T) {
	rec := ParseBlock("SOLAR IRRADIANCE 6.1\nplant capacity: 90\nwind speed:\t2")

	require.NotNil(t, rec.SolarIrradiance)
	assert.Equal(t, 6.1, *rec.SolarIrradiance)
	require.NotNil(t, rec.ReportedCapacity)
	assert.Equal(t, 90, *rec.ReportedCapacity)
	require.NotNil(t, rec.WindSpeed)
	assert.Equal(t, 2.0, *rec.WindSpeed)
}

func TestParseBlock_LocationIsCaseSensitive(t *testing.T) {
	tests := []struct {
		name     string
		block    string
		expected string
	}{
		{"labeled", "Location: Texas", "Texas"},
		{"multi word", "Location: New Mexico", "New Mexico"},
		{"no separator", "Location Arizona", "Arizona"},
		{"stops at digits", "Location: Zone 4", "Zone"},
		{"lowercase label", "location: Texas", UnknownLocation},
		{"uppercase label", "LOCATION: Texas", UnknownLocation},
		{"missing", "Plant Capacity: 10", UnknownLocation},
		{"no letters after label", "Location: 42", UnknownLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseBlock(tt.block).Location)
		})
	}
}

func TestParseBlock_MalformedNumbersAreAbsent(t *testing.T) {
	tests := []struct {
		name  string
		block string
		check func(t *testing.T, rec ExtractedRecord)
	}{
		{"repeated dots", "Solar Irradiance: 5.2.1", func(t *testing.T, rec ExtractedRecord) {
			assert.Nil(t, rec.SolarIrradiance)
		}},
		{"lone dot", "Temperature: .", func(t *testing.T, rec ExtractedRecord) {
			assert.Nil(t, rec.Temperature)
		}},
		{"decimal integer field", "Plant Capacity: 150.5", func(t *testing.T, rec ExtractedRecord) {
			assert.Nil(t, rec.ReportedCapacity)
		}},
		{"negative value", "Temperature: -5", func(t *testing.T, rec ExtractedRecord) {
			assert.Nil(t, rec.Temperature)
		}},
		{"non numeric", "Cloud Cover: cloudy", func(t *testing.T, rec ExtractedRecord) {
			assert.Nil(t, rec.CloudCover)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ParseBlock(tt.block))
		})
	}
}

func TestParseBlock_MalformedFieldDoesNotDropOthers(t *testing.T) {
	records := ExtractRecords("Solar Irradiance: 5..2\nPlant Capacity: 140\nLocation: Texas")

	require.Len(t, records, 1)
	assert.Nil(t, records[0].SolarIrradiance)
	assert.Equal(t, 140, *records[0].ReportedCapacity)
}

func TestExtractedRecord_HasMeasurements(t *testing.T) {
	assert.False(t, ExtractedRecord{Location: "Texas"}.HasMeasurements())
	assert.True(t, ExtractedRecord{CloudCover: intPtr(0)}.HasMeasurements())
	assert.True(t, ExtractedRecord{ReportedCapacity: intPtr(1)}.HasMeasurements())
}
