package domain

import (
	"fmt"
	"strings"
	"time"
)

// requiredMetric pairs a metric's output column name with its pointer accessor,
// used to report every missing field in one validation error.
type requiredMetric struct {
	name  string
	value func(*RawObservation) *float64
}

var requiredMetrics = []requiredMetric{
	{"temperature_c", func(o *RawObservation) *float64 { return o.TemperatureC }},
	{"humidity", func(o *RawObservation) *float64 { return o.Humidity }},
	{"pressure_mb", func(o *RawObservation) *float64 { return o.PressureMb }},
	{"wind_speed_kph", func(o *RawObservation) *float64 { return o.WindSpeedKph }},
	{"precipitation_mm", func(o *RawObservation) *float64 { return o.PrecipitationMm }},
	{"cloud_cover", func(o *RawObservation) *float64 { return o.CloudCover }},
	{"visibility_km", func(o *RawObservation) *float64 { return o.VisibilityKm }},
	{"uv_index", func(o *RawObservation) *float64 { return o.UVIndex }},
}

// ValidateObservation checks that a decoded observation carries every field
// the transformer depends on. The reader rejects observations failing this
// check as malformed; [Transform] is total over observations that pass.
func ValidateObservation(o RawObservation) error {
	var missing []string

	if strings.TrimSpace(o.CityName) == "" {
		missing = append(missing, "city")
	}
	if _, err := time.Parse(DateLayout, o.ForecastDate); err != nil {
		missing = append(missing, "forecast_date")
	}
	if _, err := time.Parse(ObservationTimeLayout, o.ObservationTime); err != nil {
		missing = append(missing, "observation_time")
	}
	for _, m := range requiredMetrics {
		if m.value(&o) == nil {
			missing = append(missing, m.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing or invalid fields: %s", strings.Join(missing, ", "))
	}

	if o.TimestampEpoch <= 0 {
		if _, err := observationEpoch(o); err != nil {
			return err
		}
	}
	return nil
}

// Transform maps a validated raw observation into the output schema. It is
// pure apart from reading the package clock for processing_time; it never
// fails on an observation accepted by [ValidateObservation].
func Transform(o RawObservation) ProcessedRecord {
	epoch := o.TimestampEpoch
	if epoch <= 0 {
		// Validated upstream, so derivation cannot fail here.
		epoch, _ = observationEpoch(o)
	}

	tempC := *o.TemperatureC

	return ProcessedRecord{
		CityName:        o.CityName,
		Region:          o.Region,
		Country:         o.Country,
		Latitude:        o.Latitude,
		Longitude:       o.Longitude,
		Timezone:        o.Timezone,
		ForecastDate:    o.ForecastDate,
		TimestampEpoch:  epoch,
		ObservationTime: o.ObservationTime,
		TemperatureC:    tempC,
		TemperatureF:    FahrenheitFromCelsius(tempC),
		Humidity:        *o.Humidity,
		PressureMb:      *o.PressureMb,
		WindSpeedKph:    *o.WindSpeedKph,
		PrecipitationMm: *o.PrecipitationMm,
		CloudCover:      *o.CloudCover,
		VisibilityKm:    *o.VisibilityKm,
		UVIndex:         *o.UVIndex,
		ProcessingTime:  clock.Now().UTC().UnixMilli(),
	}
}

// FahrenheitFromCelsius converts once at transform time; downstream consumers
// must treat temperature_f as frozen, never re-derived.
func FahrenheitFromCelsius(c float64) float64 {
	return c*9.0/5.0 + 32.0
}

// observationEpoch derives the unix timestamp from the observation's local
// wall-clock time interpreted in its own IANA timezone. Used only when the
// upstream payload omitted timestamp_epoch.
func observationEpoch(o RawObservation) (int64, error) {
	if o.Timezone == "" {
		return 0, fmt.Errorf("cannot derive epoch: timestamp_epoch and timezone both absent")
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return 0, fmt.Errorf("cannot derive epoch: load timezone %q: %w", o.Timezone, err)
	}
	t, err := time.ParseInLocation(ObservationTimeLayout, o.ObservationTime, loc)
	if err != nil {
		return 0, fmt.Errorf("cannot derive epoch: observation time %q: %w", o.ObservationTime, err)
	}
	return t.Unix(), nil
}
