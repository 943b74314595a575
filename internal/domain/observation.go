package domain

// RawObservation is one hourly weather reading for one city as stored in the
// raw bucket. Metric fields are pointers so that a missing field can be told
// apart from a legitimate zero during validation; a decoded observation must
// pass [ValidateObservation] before it reaches the transformer.
type RawObservation struct {
	CityName        string   `json:"city"`
	Region          string   `json:"region"`
	Country         string   `json:"country"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	Timezone        string   `json:"timezone"` // IANA tz_id, e.g. "Europe/London"
	ForecastDate    string   `json:"forecast_date"`
	TimestampEpoch  int64    `json:"timestamp_epoch"`
	ObservationTime string   `json:"observation_time"` // local wall-clock, "2006-01-02 15:04"
	TemperatureC    *float64 `json:"temperature_c"`
	Humidity        *float64 `json:"humidity"`
	PressureMb      *float64 `json:"pressure_mb"`
	WindSpeedKph    *float64 `json:"wind_speed_kph"`
	PrecipitationMm *float64 `json:"precipitation_mm"`
	CloudCover      *float64 `json:"cloud_cover"`
	VisibilityKm    *float64 `json:"visibility_km"`
	UVIndex         *float64 `json:"uv_index"`
}

// ProcessedRecord is the normalized output row written to the processed
// bucket. The parquet tags define the columnar schema; column order and names
// must stay aligned with the catalog table (see the catalog package), because
// downstream queries resolve columns by name.
type ProcessedRecord struct {
	CityName        string  `parquet:"name=city_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Region          string  `parquet:"name=region, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Country         string  `parquet:"name=country, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Latitude        float64 `parquet:"name=latitude, type=DOUBLE"`
	Longitude       float64 `parquet:"name=longitude, type=DOUBLE"`
	Timezone        string  `parquet:"name=timezone, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ForecastDate    string  `parquet:"name=forecast_date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TimestampEpoch  int64   `parquet:"name=timestamp_epoch, type=INT64"`
	ObservationTime string  `parquet:"name=observation_time, type=BYTE_ARRAY, convertedtype=UTF8"`
	TemperatureC    float64 `parquet:"name=temperature_c, type=DOUBLE"`
	TemperatureF    float64 `parquet:"name=temperature_f, type=DOUBLE"`
	Humidity        float64 `parquet:"name=humidity, type=DOUBLE"`
	PressureMb      float64 `parquet:"name=pressure_mb, type=DOUBLE"`
	WindSpeedKph    float64 `parquet:"name=wind_speed_kph, type=DOUBLE"`
	PrecipitationMm float64 `parquet:"name=precipitation_mm, type=DOUBLE"`
	CloudCover      float64 `parquet:"name=cloud_cover, type=DOUBLE"`
	VisibilityKm    float64 `parquet:"name=visibility_km, type=DOUBLE"`
	UVIndex         float64 `parquet:"name=uv_index, type=DOUBLE"`
	ProcessingTime  int64   `parquet:"name=processing_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

// SchemaColumn pairs a column name with its Glue/Athena type.
type SchemaColumn struct {
	Name string
	Type string
}

// ProcessedColumns is the catalog-facing data column set, in writer order.
// It mirrors the parquet tags on [ProcessedRecord].
var ProcessedColumns = []SchemaColumn{
	{Name: "city_name", Type: "string"},
	{Name: "region", Type: "string"},
	{Name: "country", Type: "string"},
	{Name: "latitude", Type: "double"},
	{Name: "longitude", Type: "double"},
	{Name: "timezone", Type: "string"},
	{Name: "forecast_date", Type: "string"},
	{Name: "timestamp_epoch", Type: "bigint"},
	{Name: "observation_time", Type: "string"},
	{Name: "temperature_c", Type: "double"},
	{Name: "temperature_f", Type: "double"},
	{Name: "humidity", Type: "double"},
	{Name: "pressure_mb", Type: "double"},
	{Name: "wind_speed_kph", Type: "double"},
	{Name: "precipitation_mm", Type: "double"},
	{Name: "cloud_cover", Type: "double"},
	{Name: "visibility_km", Type: "double"},
	{Name: "uv_index", Type: "double"},
	{Name: "processing_time", Type: "timestamp"},
}

// PartitionColumns are the partition keys of the catalog table. They appear in
// the storage path, never inside the parquet files themselves.
var PartitionColumns = []SchemaColumn{
	{Name: "source_date", Type: "string"},
	{Name: "city_id", Type: "string"},
	{Name: "hour", Type: "int"},
}
