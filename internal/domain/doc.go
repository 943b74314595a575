// Package domain models hourly weather observations flowing through the lake.
//
// # Data Source
//
// Raw observations originate from an upstream ingestion function that fetches
// one city-hour of historical weather from a commercial weather API on a cron
// schedule and writes the result to the raw bucket as a JSON array of flat
// observation objects, one object per fetch attempt (retries may append
// duplicates for the same city-hour; deduplication is not the reader's job).
//
// # Naming Conventions
//
// Raw objects:
//
//	dt=<YYYY-MM-DD>/<city_id>_<HH>.json
//
// Processed partitions:
//
//	source_date=<YYYY-MM-DD>/city_id=<city_id>/hour=<HH>/part-00000.parquet
//
// city_id is the display city name lowercased with spaces replaced by
// underscores ("New York" → "new_york"). Hours are zero-padded to two digits
// in both layouts so that a key derived from a path and a key derived from a
// record render byte-identical paths; the parsers accept unpadded legacy
// names. The processed layout must match the query catalog's partition
// projection pattern exactly; a drifted path is silently invisible to
// downstream SQL.
//
// # Timezone
//
// The partition hour is ALWAYS the observation's source-local hour: the hour
// the ingestion function requested from the API, which is also the wall-clock
// hour in the record's observation_time field and the hour embedded in the raw
// file name. UTC is never substituted. timestamp_epoch, when absent upstream,
// is derived from observation_time interpreted in the record's own IANA
// timezone.
//
// # Derived Fields
//
// temperature_f = temperature_c × 9/5 + 32, computed once at transform time
// and frozen. processing_time is the wall-clock time of the transforming run
// (from an injectable clock, see [SetClock]), not the observation time, so
// reprocessed partitions are distinguishable in audits.
package domain
