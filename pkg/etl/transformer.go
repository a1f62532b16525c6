package etl

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// Document is one enriched record ready for insertion.
type Document = map[string]interface{}

// schemaVersion marks the envelope layout documents are written with.
const schemaVersion = 1.0

// flattenRule copies a raw field to a top-level convenience field.
type flattenRule struct {
	dst string
	src string
}

// flattenRules maps an endpoint name to the convenience fields flattened out
// of its records. Unknown endpoints get no extras, which is expected.
var flattenRules = map[string][]flattenRule{
	"languages":   {{"name", "name"}, {"iso_code", "iso6391"}},
	"licenses":    {{"license_name", "name"}, {"license_url", "url"}},
	"maintainers": {{"maintainer_name", "name"}, {"maintainer_url", "url"}},
	"software":    {{"software_name", "name"}, {"software_home", "homeUrl"}},
	"syntaxes":    {{"syntax_name", "name"}},
	"tags":        {{"tag_name", "name"}},
}

// Transformer wraps raw records in the ingestion envelope.
type Transformer struct {
	apiBase string
	logger  *zap.Logger
}

// NewTransformer creates a transformer stamping documents with the given
// API base as their provenance.
func NewTransformer(apiBase string, logger *zap.Logger) *Transformer {
	return &Transformer{
		apiBase: apiBase,
		logger:  logger.With(zap.String("component", "transformer")),
	}
}

// Transform cleans and enriches a batch of records, stamping every document
// with the same capture time.
func (t *Transformer) Transform(records []map[string]interface{}, endpoint string) []Document {
	return t.TransformAt(records, endpoint, time.Now())
}

// TransformAt is Transform with an explicit capture time. Given the same
// records, endpoint and time it is deterministic.
func (t *Transformer) TransformAt(records []map[string]interface{}, endpoint string, now time.Time) []Document {
	t.logger.Info("transforming records",
		zap.Int("count", len(records)),
		zap.String("endpoint", endpoint))

	name := strings.Trim(endpoint, "/")
	retrievedAt := now.Format(time.RFC3339Nano)

	docs := make([]Document, 0, len(records))
	for i, rec := range records {
		cleaned := CleanRecord(rec)

		doc := Document{
			"_source_id":     sourceID(cleaned),
			"record_index":   i + 1,
			"endpoint":       name,
			"ingestion_time": now,
			"schema_version": schemaVersion,
			"source": map[string]interface{}{
				"api_base":     t.apiBase,
				"endpoint":     endpoint,
				"retrieved_at": retrievedAt,
			},
			"data": cleaned,
		}

		for _, rule := range flattenRules[name] {
			doc[rule.dst] = cleaned[rule.src]
		}

		docs = append(docs, doc)
	}

	return docs
}

// CleanRecord drops top-level keys whose value carries no information: nil,
// empty string, empty sequence, empty mapping, or the literal string "null".
// Meaningful falsy values like 0 and false are preserved. Cleaning is not
// recursive.
func CleanRecord(rec map[string]interface{}) map[string]interface{} {
	cleaned := make(map[string]interface{}, len(rec))
	for k, v := range rec {
		if isEmptyValue(v) {
			continue
		}
		cleaned[k] = v
	}
	return cleaned
}

func isEmptyValue(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == "" || val == "null"
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	default:
		return false
	}
}

// sourceID pulls the record identity from its id or _id key, else nil
func sourceID(rec map[string]interface{}) interface{} {
	if id, ok := rec["id"]; ok {
		return id
	}
	if id, ok := rec["_id"]; ok {
		return id
	}
	return nil
}
