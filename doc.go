// Package filterlistsetl mirrors the FilterLists catalog API into MongoDB.
//
// The pipeline pulls each configured resource collection over HTTP, wraps
// every record in an enrichment envelope (ingestion timestamp, batch index,
// source provenance, per-resource convenience fields), and bulk-inserts the
// result into one collection per resource. Runs are independent and
// append-only: nothing is deduplicated against prior runs.
//
// # Architecture
//
// Processing is strictly sequential per endpoint: extract, transform, load.
// Failures are contained at the layer where they occur. Fetches retry on two
// tiers (a fixed attempt budget over a transport-level backoff tier) and
// degrade to empty results on exhaustion; storage write failures are logged
// and skipped; an endpoint that fails outright never aborts the remaining
// endpoints. The only fatal error is failing to reach MongoDB at startup.
//
// # Quick Start
//
// Mirror the full catalog:
//
//	filterlists-etl run
//
// Mirror selected resources:
//
//	filterlists-etl run /lists /languages
//
// Configuration comes from the environment (BASE_URL, MONGO_URI, DB_NAME,
// REQUEST_TIMEOUT), optionally seeded from a .env file, or from a YAML file
// passed with --config.
package filterlistsetl
