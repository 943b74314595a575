package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the calendar date format used in both storage layouts.
	DateLayout = "2006-01-02"
	// ObservationTimeLayout is the local wall-clock format in raw records.
	ObservationTimeLayout = "2006-01-02 15:04"
)

var (
	// rawObjectKeyRe matches "dt=2024-06-01/london_14.json", with or without a
	// leading key prefix and with or without a zero-padded hour.
	rawObjectKeyRe = regexp.MustCompile(`(?:^|/)dt=(\d{4}-\d{2}-\d{2})/([a-z0-9_]+)_(\d{1,2})\.json$`)

	// processedKeyRe matches any key or prefix under a processed partition,
	// e.g. "source_date=2024-06-01/city_id=london/hour=14/part-00000.parquet".
	processedKeyRe = regexp.MustCompile(`(?:^|/)source_date=(\d{4}-\d{2}-\d{2})/city_id=([a-z0-9_]+)/hour=(\d{1,2})(?:/|$)`)

	cityIDRe = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// PartitionKey uniquely addresses one city-hour of data. The same key locates
// both the raw input object and the processed output partition.
type PartitionKey struct {
	SourceDate string `json:"source_date"` // calendar date, YYYY-MM-DD
	CityID     string `json:"city_id"`     // normalized city identifier
	Hour       int    `json:"hour"`        // source-local hour, 0-23
}

// NormalizeCityID derives the canonical city identifier from a display name:
// lowercase with spaces collapsed to underscores, e.g. "New York" → "new_york".
func NormalizeCityID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(id, " ", "_")
}

// Validate reports whether the key is well-formed.
func (k PartitionKey) Validate() error {
	if _, err := time.Parse(DateLayout, k.SourceDate); err != nil {
		return fmt.Errorf("invalid source date %q: %w", k.SourceDate, err)
	}
	if !cityIDRe.MatchString(k.CityID) {
		return fmt.Errorf("invalid city id %q", k.CityID)
	}
	if k.Hour < 0 || k.Hour > 23 {
		return fmt.Errorf("hour %d out of range [0,23]", k.Hour)
	}
	return nil
}

// String renders the key for logs and run summaries.
func (k PartitionKey) String() string {
	return fmt.Sprintf("%s/%s/%02d", k.SourceDate, k.CityID, k.Hour)
}

// RawObjectKey renders the raw bucket key for this partition,
// e.g. "dt=2024-06-01/london_14.json".
func (k PartitionKey) RawObjectKey() string {
	return fmt.Sprintf("dt=%s/%s_%02d.json", k.SourceDate, k.CityID, k.Hour)
}

// ProcessedPrefix renders the processed partition directory,
// e.g. "source_date=2024-06-01/city_id=london/hour=14/".
func (k PartitionKey) ProcessedPrefix() string {
	return fmt.Sprintf("source_date=%s/city_id=%s/hour=%02d/", k.SourceDate, k.CityID, k.Hour)
}

// ParseRawObjectKey is the exact inverse of [PartitionKey.RawObjectKey].
// A leading key prefix (e.g. "historical/") is ignored.
func ParseRawObjectKey(key string) (PartitionKey, error) {
	m := rawObjectKeyRe.FindStringSubmatch(key)
	if m == nil {
		return PartitionKey{}, fmt.Errorf("raw object key %q does not match dt=<date>/<city>_<hour>.json", key)
	}
	hour, err := strconv.Atoi(m[3])
	if err != nil {
		return PartitionKey{}, fmt.Errorf("raw object key %q: parse hour: %w", key, err)
	}
	k := PartitionKey{SourceDate: m[1], CityID: m[2], Hour: hour}
	if err := k.Validate(); err != nil {
		return PartitionKey{}, fmt.Errorf("raw object key %q: %w", key, err)
	}
	return k, nil
}

// ParseProcessedKey extracts the partition key from a processed object key or
// partition prefix.
func ParseProcessedKey(key string) (PartitionKey, error) {
	m := processedKeyRe.FindStringSubmatch(key)
	if m == nil {
		return PartitionKey{}, fmt.Errorf("processed key %q does not match source_date=<date>/city_id=<city>/hour=<hour>", key)
	}
	hour, err := strconv.Atoi(m[3])
	if err != nil {
		return PartitionKey{}, fmt.Errorf("processed key %q: parse hour: %w", key, err)
	}
	k := PartitionKey{SourceDate: m[1], CityID: m[2], Hour: hour}
	if err := k.Validate(); err != nil {
		return PartitionKey{}, fmt.Errorf("processed key %q: %w", key, err)
	}
	return k, nil
}

// KeyFromObservation derives the partition key from record content: the date
// from forecast_date, the city from the display name, and the hour from the
// observation's local wall-clock time. For a well-formed raw store this equals
// the key parsed from the object path that held the record.
func KeyFromObservation(o RawObservation) (PartitionKey, error) {
	t, err := time.Parse(ObservationTimeLayout, o.ObservationTime)
	if err != nil {
		return PartitionKey{}, fmt.Errorf("observation time %q: %w", o.ObservationTime, err)
	}
	k := PartitionKey{
		SourceDate: o.ForecastDate,
		CityID:     NormalizeCityID(o.CityName),
		Hour:       t.Hour(),
	}
	if err := k.Validate(); err != nil {
		return PartitionKey{}, err
	}
	return k, nil
}
