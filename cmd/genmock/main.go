// Command genmock writes a deterministic synthetic hydrogen plant dataset for
// the training job, plus a sample plant report in the block layout the
// extractor reads. The report is parsed back through the domain extractor to
// make sure every generated block is recognised.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -rows 1000 \
//	  -csv-out data/hydrogen_mock_1000.csv \
//	  -report-out data/sample_report.txt
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/hydrogen-audit-service/internal/domain"
	"github.com/couchcryptid/hydrogen-audit-service/internal/model"
)

var locations = []string{"Arizona", "California", "Gujarat", "Nevada", "Rajasthan", "Texas"}

// locationBonus shifts capacity per site so the one-hot columns carry signal.
var locationBonus = map[string]float64{
	"Arizona":    12,
	"California": 4,
	"Gujarat":    -6,
	"Nevada":     9,
	"Rajasthan":  -2,
	"Texas":      0,
}

type plant struct {
	irradiance float64
	temp       float64
	wind       float64
	cloud      int
	energy     int
	location   string
	capacity   int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rows := flag.Int("rows", 1000, "number of dataset rows")
	seed := flag.Uint64("seed", 42, "random seed")
	reportBlocks := flag.Int("report-blocks", 6, "number of blocks in the sample report")
	csvOut := flag.String("csv-out", "", "output path for the training CSV")
	reportOut := flag.String("report-out", "", "output path for the sample report text")
	flag.Parse()

	if *csvOut == "" || *reportOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-out, -report-out")
	}
	if *rows < len(locations) {
		return fmt.Errorf("-rows must be at least %d", len(locations))
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	plants := make([]plant, *rows)
	for i := range plants {
		plants[i] = generatePlant(rng, locations[i%len(locations)])
	}
	if err := writeDataset(*csvOut, plants); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	log.Printf("wrote dataset: %s (%d rows)", *csvOut, len(plants))

	report := sampleReport(rng, *reportBlocks)
	if got := len(domain.ExtractRecords(report)); got != *reportBlocks {
		return fmt.Errorf("sample report parses to %d records, want %d", got, *reportBlocks)
	}
	if err := writeFile(*reportOut, []byte(report)); err != nil {
		return fmt.Errorf("writing sample report: %w", err)
	}
	log.Printf("wrote sample report: %s (%d blocks)", *reportOut, *reportBlocks)

	printStats(plants)
	return nil
}

func generatePlant(rng *rand.Rand, location string) plant {
	p := plant{
		irradiance: round1(2.5 + rng.Float64()*5),
		temp:       round1(15 + rng.Float64()*30),
		wind:       round1(rng.Float64() * 12),
		cloud:      rng.IntN(91),
		energy:     100 + rng.IntN(401),
		location:   location,
	}
	capacity := 20 +
		14*p.irradiance -
		0.6*(p.temp-25) +
		0.8*p.wind -
		0.35*float64(p.cloud) +
		0.3*float64(p.energy) +
		locationBonus[location] +
		rng.NormFloat64()*4
	p.capacity = max(0, int(math.Round(capacity)))
	return p
}

// sampleReport builds report blocks that cover every verdict: plausible
// figures, inflated figures, and out-of-range irradiance.
func sampleReport(rng *rand.Rand, blocks int) string {
	var b strings.Builder
	for i := range blocks {
		p := generatePlant(rng, locations[rng.IntN(len(locations))])
		switch i % 3 {
		case 1:
			p.capacity = p.capacity * 2
		case 2:
			p.irradiance = 8.5
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Plant %d\n", i+1)
		fmt.Fprintf(&b, "Solar Irradiance: %g kWh/m2\n", p.irradiance)
		fmt.Fprintf(&b, "Temperature: %g C\n", p.temp)
		fmt.Fprintf(&b, "Wind Speed: %g m/s\n", p.wind)
		fmt.Fprintf(&b, "Cloud Cover: %d %%\n", p.cloud)
		fmt.Fprintf(&b, "Energy Input: %d kW\n", p.energy)
		fmt.Fprintf(&b, "Plant Capacity: %d kg/day\n", p.capacity)
		fmt.Fprintf(&b, "Location: %s\n", p.location)
	}
	return b.String()
}

func writeDataset(path string, plants []plant) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		model.ColSolarIrradiance,
		model.ColTemperature,
		model.ColWindSpeed,
		model.ColCloudCover,
		model.ColEnergyInput,
		model.LocationColumn,
		model.TargetColumn,
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, p := range plants {
		row := []string{
			strconv.FormatFloat(p.irradiance, 'f', -1, 64),
			strconv.FormatFloat(p.temp, 'f', -1, 64),
			strconv.FormatFloat(p.wind, 'f', -1, 64),
			strconv.Itoa(p.cloud),
			strconv.Itoa(p.energy),
			p.location,
			strconv.Itoa(p.capacity),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func printStats(plants []plant) {
	counts := make(map[string]int)
	var minCap, maxCap, sum int
	minCap = math.MaxInt
	for _, p := range plants {
		counts[p.location]++
		minCap = min(minCap, p.capacity)
		maxCap = max(maxCap, p.capacity)
		sum += p.capacity
	}
	fmt.Println("\nRows by location:")
	for _, loc := range locations {
		fmt.Printf("  %-12s %d\n", loc, counts[loc])
	}
	fmt.Printf("\nCapacity kg/day: min %d, max %d, mean %.1f\n", minCap, maxCap, float64(sum)/float64(len(plants)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
