// Command genmock generates deterministic raw observation fixtures laid out
// the way the collector writes them, one JSON array per city-hour under
// dt=<date>/ prefixes. It uses the actual domain package so fixture content
// matches real pipeline input.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/raw \
//	  -base-date 2024-06-01 \
//	  -days 7
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/weather-lake-etl/internal/domain"
)

type cityDef struct {
	name     string
	region   string
	country  string
	lat, lon float64
	timezone string
	baseTemp float64
}

var cities = []cityDef{
	{name: "London", region: "City of London, Greater London", country: "United Kingdom", lat: 51.52, lon: -0.11, timezone: "Europe/London", baseTemp: 14.0},
	{name: "New York", region: "New York", country: "United States of America", lat: 40.71, lon: -74.01, timezone: "America/New_York", baseTemp: 18.0},
	{name: "Tokyo", region: "Tokyo", country: "Japan", lat: 35.69, lon: 139.69, timezone: "Asia/Tokyo", baseTemp: 21.0},
	{name: "Sydney", region: "New South Wales", country: "Australia", lat: -33.87, lon: 151.21, timezone: "Australia/Sydney", baseTemp: 12.0},
}

var sampleHours = []int{2, 8, 14, 20}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for the raw store root")
	baseDateStr := flag.String("base-date", "2024-06-01", "first source date (YYYY-MM-DD)")
	days := flag.Int("days", 7, "number of consecutive days to generate")
	malformed := flag.Bool("malformed", true, "inject malformed records into one unit per day")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	baseDate, err := time.Parse(domain.DateLayout, *baseDateStr)
	if err != nil {
		return fmt.Errorf("invalid -base-date: %w", err)
	}

	// Fixed seed keeps fixtures byte-stable across regenerations.
	rng := rand.New(rand.NewSource(20240601))

	var units, records int
	for day := 0; day < *days; day++ {
		date := baseDate.AddDate(0, 0, day)
		for _, city := range cities {
			for _, hour := range sampleHours {
				key := domain.PartitionKey{
					SourceDate: date.Format(domain.DateLayout),
					CityID:     domain.NormalizeCityID(city.name),
					Hour:       hour,
				}
				obs := generateUnit(rng, city, date, hour)
				records += len(obs)

				var elems []json.RawMessage
				for i := range obs {
					data, err := json.Marshal(&obs[i])
					if err != nil {
						return fmt.Errorf("marshal observation: %w", err)
					}
					elems = append(elems, data)
				}
				// One corrupt element per day exercises the reader's
				// record-level isolation.
				if *malformed && city.name == "Sydney" && hour == sampleHours[0] {
					elems = append(elems, json.RawMessage(`{"city":"Sydney","observation_time":"not a timestamp"}`))
				}

				if err := writeUnit(*out, key, elems); err != nil {
					return fmt.Errorf("writing %s: %w", key, err)
				}
				units++
			}
		}
	}

	log.Printf("wrote %d units, %d records under %s", units, records, *out)
	return nil
}

// generateUnit produces three observations for one city-hour, including one
// duplicate observation_time so downstream dedup paths see realistic input.
func generateUnit(rng *rand.Rand, city cityDef, date time.Time, hour int) []domain.RawObservation {
	obs := make([]domain.RawObservation, 0, 3)
	for i := 0; i < 3; i++ {
		minute := i * 20
		if i == 2 {
			minute = 20 // duplicate of the second reading's timestamp
		}
		obs = append(obs, observation(rng, city, date, hour, minute))
	}
	return obs
}

func observation(rng *rand.Rand, city cityDef, date time.Time, hour, minute int) domain.RawObservation {
	loc, err := time.LoadLocation(city.timezone)
	if err != nil {
		loc = time.UTC
	}
	at := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)

	temp := city.baseTemp + rng.Float64()*8 - 4
	humidity := 40 + rng.Float64()*50
	pressure := 1000 + rng.Float64()*30
	wind := rng.Float64() * 35
	precip := 0.0
	if rng.Float64() < 0.3 {
		precip = rng.Float64() * 6
	}
	cloud := rng.Float64() * 100
	visibility := 4 + rng.Float64()*12
	uv := rng.Float64() * 9

	return domain.RawObservation{
		CityName:        city.name,
		Region:          city.region,
		Country:         city.country,
		Latitude:        city.lat,
		Longitude:       city.lon,
		Timezone:        city.timezone,
		ForecastDate:    date.Format(domain.DateLayout),
		TimestampEpoch:  at.Unix(),
		ObservationTime: at.Format(domain.ObservationTimeLayout),
		TemperatureC:    &temp,
		Humidity:        &humidity,
		PressureMb:      &pressure,
		WindSpeedKph:    &wind,
		PrecipitationMm: &precip,
		CloudCover:      &cloud,
		VisibilityKm:    &visibility,
		UVIndex:         &uv,
	}
}

func writeUnit(root string, key domain.PartitionKey, elems []json.RawMessage) error {
	path := filepath.Join(root, filepath.FromSlash(key.RawObjectKey()))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(elems, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
