package engine

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tartampluch/go-curbside/internal/config"
)

// ScheduleRecord mirrors the upstream feature-layer response shape:
//
//	{ "features": [ { "attributes": { "<field>": "<value>" } } ] }
//
// Only the first feature's attributes are consulted. Any other shape is a
// recoverable condition that degrades the corresponding rule to unset.
type ScheduleRecord struct {
	Features []Feature `json:"features"`
}

// Feature is a single upstream feature. Attribute values are kept untyped
// because the layer mixes strings with numeric identifiers; the engine only
// reads string-valued fields.
type Feature struct {
	Attributes map[string]any `json:"attributes"`
}

// DecodeRecord parses an upstream JSON response body into a ScheduleRecord.
func DecodeRecord(r io.Reader) (*ScheduleRecord, error) {
	var rec ScheduleRecord
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRecordDecode, err)
	}
	return &rec, nil
}

// serviceDay extracts the service-day attribute of the first feature.
// The second return value reports whether the record passed the validity
// test: non-nil, a non-empty features list, an attributes mapping on the
// first feature, and a non-empty string value for the field.
func (r *ScheduleRecord) serviceDay() (string, bool) {
	if r == nil || len(r.Features) == 0 || r.Features[0].Attributes == nil {
		return "", false
	}
	v, ok := r.Features[0].Attributes[config.AttrServiceDay].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
