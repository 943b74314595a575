package domain

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func validObservation() RawObservation {
	return RawObservation{
		CityName:        "London",
		Region:          "City of London, Greater London",
		Country:         "United Kingdom",
		Latitude:        51.52,
		Longitude:       -0.11,
		Timezone:        "Europe/London",
		ForecastDate:    "2024-06-01",
		TimestampEpoch:  1717246800,
		ObservationTime: "2024-06-01 14:00",
		TemperatureC:    ptr(18.5),
		Humidity:        ptr(62.0),
		PressureMb:      ptr(1014.0),
		WindSpeedKph:    ptr(11.2),
		PrecipitationMm: ptr(0.0),
		CloudCover:      ptr(25.0),
		VisibilityKm:    ptr(10.0),
		UVIndex:         ptr(5.0),
	}
}

func TestValidateObservation_Valid(t *testing.T) {
	assert.NoError(t, ValidateObservation(validObservation()))
}

func TestValidateObservation_MissingMetric(t *testing.T) {
	obs := validObservation()
	obs.TemperatureC = nil

	err := ValidateObservation(obs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temperature_c")
}

func TestValidateObservation_ReportsAllMissingFields(t *testing.T) {
	obs := validObservation()
	obs.CityName = "  "
	obs.TemperatureC = nil
	obs.Humidity = nil
	obs.ObservationTime = "14:00"

	err := ValidateObservation(obs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city")
	assert.Contains(t, err.Error(), "temperature_c")
	assert.Contains(t, err.Error(), "humidity")
	assert.Contains(t, err.Error(), "observation_time")
}

func TestValidateObservation_ZeroMetricIsValid(t *testing.T) {
	obs := validObservation()
	obs.PrecipitationMm = ptr(0.0)
	obs.CloudCover = ptr(0.0)

	assert.NoError(t, ValidateObservation(obs))
}

func TestValidateObservation_MissingEpochNeedsTimezone(t *testing.T) {
	obs := validObservation()
	obs.TimestampEpoch = 0
	obs.Timezone = ""

	err := ValidateObservation(obs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timezone")
}

func TestValidateObservation_MissingEpochDerivable(t *testing.T) {
	obs := validObservation()
	obs.TimestampEpoch = 0

	assert.NoError(t, ValidateObservation(obs))
}

func TestFahrenheitFromCelsius(t *testing.T) {
	tests := []struct {
		name string
		c    float64
		want float64
	}{
		{"freezing", 0, 32},
		{"boiling", 100, 212},
		{"negative forty is fixed point", -40, -40},
		{"london afternoon", 18.5, 65.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FahrenheitFromCelsius(tt.c), 1e-9)
		})
	}
}

func TestTransform(t *testing.T) {
	processedAt := time.Date(2024, time.June, 2, 2, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(processedAt))
	defer SetClock(nil)

	obs := validObservation()
	rec := Transform(obs)

	assert.Equal(t, "London", rec.CityName)
	assert.Equal(t, "United Kingdom", rec.Country)
	assert.Equal(t, "Europe/London", rec.Timezone)
	assert.Equal(t, "2024-06-01", rec.ForecastDate)
	assert.Equal(t, int64(1717246800), rec.TimestampEpoch)
	assert.Equal(t, "2024-06-01 14:00", rec.ObservationTime)
	assert.Equal(t, 18.5, rec.TemperatureC)
	assert.InDelta(t, 65.3, rec.TemperatureF, 1e-9)
	assert.Equal(t, 62.0, rec.Humidity)
	assert.Equal(t, 1014.0, rec.PressureMb)
	assert.Equal(t, 11.2, rec.WindSpeedKph)
	assert.Equal(t, 0.0, rec.PrecipitationMm)
	assert.Equal(t, 25.0, rec.CloudCover)
	assert.Equal(t, 10.0, rec.VisibilityKm)
	assert.Equal(t, 5.0, rec.UVIndex)
	assert.Equal(t, processedAt.UnixMilli(), rec.ProcessingTime)
}

func TestTransform_FahrenheitMatchesFormula(t *testing.T) {
	obs := validObservation()
	for _, c := range []float64{-27.3, -5, 0.1, 12.34, 33.3333, 41.0} {
		obs.TemperatureC = ptr(c)
		rec := Transform(obs)
		assert.LessOrEqual(t, math.Abs(rec.TemperatureF-(c*9.0/5.0+32.0)), 1e-9)
	}
}

func TestTransform_DerivesEpochFromLocalTime(t *testing.T) {
	obs := validObservation()
	obs.TimestampEpoch = 0

	rec := Transform(obs)

	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	want := time.Date(2024, time.June, 1, 14, 0, 0, 0, loc).Unix()
	assert.Equal(t, want, rec.TimestampEpoch)
}

func TestTransform_Deterministic(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.June, 2, 2, 0, 0, 0, time.UTC)))
	defer SetClock(nil)

	obs := validObservation()
	assert.Equal(t, Transform(obs), Transform(obs))
}
