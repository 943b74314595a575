package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCityID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase passthrough", "london", "london"},
		{"uppercase folded", "London", "london"},
		{"spaces become underscores", "New York", "new_york"},
		{"surrounding whitespace trimmed", "  Tokyo ", "tokyo"},
		{"multiple words", "Rio De Janeiro", "rio_de_janeiro"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCityID(tt.in))
		})
	}
}

func TestPartitionKeyValidate(t *testing.T) {
	valid := PartitionKey{SourceDate: "2024-06-01", CityID: "london", Hour: 14}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		key  PartitionKey
	}{
		{"bad date", PartitionKey{SourceDate: "06/01/2024", CityID: "london", Hour: 14}},
		{"empty city", PartitionKey{SourceDate: "2024-06-01", CityID: "", Hour: 14}},
		{"city with uppercase", PartitionKey{SourceDate: "2024-06-01", CityID: "London", Hour: 14}},
		{"hour below range", PartitionKey{SourceDate: "2024-06-01", CityID: "london", Hour: -1}},
		{"hour above range", PartitionKey{SourceDate: "2024-06-01", CityID: "london", Hour: 24}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.key.Validate())
		})
	}
}

func TestRawObjectKeyRoundTrip(t *testing.T) {
	key := PartitionKey{SourceDate: "2024-06-01", CityID: "new_york", Hour: 7}

	objectKey := key.RawObjectKey()
	assert.Equal(t, "dt=2024-06-01/new_york_07.json", objectKey)

	parsed, err := ParseRawObjectKey(objectKey)
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
}

func TestParseRawObjectKey_UnpaddedHour(t *testing.T) {
	parsed, err := ParseRawObjectKey("dt=2024-06-01/london_7.json")
	require.NoError(t, err)
	assert.Equal(t, PartitionKey{SourceDate: "2024-06-01", CityID: "london", Hour: 7}, parsed)

	// Re-deriving the canonical key pads the hour.
	assert.Equal(t, "dt=2024-06-01/london_07.json", parsed.RawObjectKey())
}

func TestParseRawObjectKey_WithBucketPrefix(t *testing.T) {
	parsed, err := ParseRawObjectKey("raw/dt=2024-06-01/london_14.json")
	require.NoError(t, err)
	assert.Equal(t, PartitionKey{SourceDate: "2024-06-01", CityID: "london", Hour: 14}, parsed)
}

func TestParseRawObjectKey_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"missing dt prefix", "2024-06-01/london_14.json"},
		{"not json", "dt=2024-06-01/london_14.parquet"},
		{"no hour", "dt=2024-06-01/london.json"},
		{"hour out of range", "dt=2024-06-01/london_25.json"},
		{"bad date", "dt=20240601/london_14.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRawObjectKey(tt.key)
			assert.Error(t, err)
		})
	}
}

func TestProcessedPrefixRoundTrip(t *testing.T) {
	key := PartitionKey{SourceDate: "2024-06-01", CityID: "london", Hour: 3}

	prefix := key.ProcessedPrefix()
	assert.Equal(t, "source_date=2024-06-01/city_id=london/hour=03/", prefix)

	parsed, err := ParseProcessedKey(prefix + "part-00000.parquet")
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
}

func TestParseProcessedKey_UnpaddedHour(t *testing.T) {
	parsed, err := ParseProcessedKey("source_date=2024-06-01/city_id=london/hour=3/part-00000.parquet")
	require.NoError(t, err)
	assert.Equal(t, 3, parsed.Hour)
}

func TestParseProcessedKey_Invalid(t *testing.T) {
	_, err := ParseProcessedKey("source_date=2024-06-01/london/hour=03/part-00000.parquet")
	assert.Error(t, err)
}

func TestPartitionKeyString(t *testing.T) {
	key := PartitionKey{SourceDate: "2024-06-01", CityID: "london", Hour: 9}
	assert.Equal(t, "2024-06-01/london/09", key.String())
}

func TestKeyFromObservation(t *testing.T) {
	obs := RawObservation{
		CityName:        "New York",
		ForecastDate:    "2024-06-01",
		ObservationTime: "2024-06-01 14:40",
	}

	key, err := KeyFromObservation(obs)
	require.NoError(t, err)
	assert.Equal(t, PartitionKey{SourceDate: "2024-06-01", CityID: "new_york", Hour: 14}, key)
}

func TestKeyFromObservation_BadTime(t *testing.T) {
	obs := RawObservation{
		CityName:        "London",
		ForecastDate:    "2024-06-01",
		ObservationTime: "not a timestamp",
	}
	_, err := KeyFromObservation(obs)
	assert.Error(t, err)
}
