package etl

// wrapperKey is the conventional key some endpoints nest their collection under.
const wrapperKey = "data"

// PayloadShape tags the recognized top-level shapes of an API response.
type PayloadShape int

const (
	// ShapeSequence is a top-level JSON array
	ShapeSequence PayloadShape = iota
	// ShapeWrapped is an object carrying an array under the wrapper key
	ShapeWrapped
	// ShapeObject is a bare single object
	ShapeObject
	// ShapeOther is anything else (scalar, null, non-JSON value)
	ShapeOther
)

// ResolvePayload classifies a decoded JSON value and flattens it into the
// record sequence it represents. This is the single decision point for
// response shape handling: arrays pass through, a wrapped array is unwrapped,
// a bare object becomes a one-element sequence, anything else is empty.
// Non-object items inside a sequence are dropped.
func ResolvePayload(value interface{}) ([]map[string]interface{}, PayloadShape) {
	switch v := value.(type) {
	case []interface{}:
		return asRecords(v), ShapeSequence
	case map[string]interface{}:
		if wrapped, ok := v[wrapperKey].([]interface{}); ok {
			return asRecords(wrapped), ShapeWrapped
		}
		return []map[string]interface{}{v}, ShapeObject
	default:
		return nil, ShapeOther
	}
}

// asRecords keeps the object items of a decoded JSON array, in order
func asRecords(items []interface{}) []map[string]interface{} {
	records := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if rec, ok := item.(map[string]interface{}); ok {
			records = append(records, rec)
		}
	}
	return records
}
