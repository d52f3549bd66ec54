package jsonextract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ParseError reports a syntactically invalid JSON payload. It is the only
// failure mode of the extractor; every later miss degrades to an anomaly.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decoding JSON payload: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result holds the mapped fields and the anomaly list. Targets that could
// not be resolved are omitted from Extracted and reported in Anomalies, one
// human-readable entry per field, in schema order.
type Result struct {
	Extracted map[string]any `json:"extracted_data"`
	Anomalies []string       `json:"anomalies"`
}

// Extractor resolves payloads against a declarative schema.
type Extractor struct {
	schema []FieldMapping
}

// New creates an extractor for the given schema.
func New(schema []FieldMapping) *Extractor {
	return &Extractor{schema: schema}
}

// NewInvoice creates an extractor bound to the fixed invoice schema.
func NewInvoice() *Extractor {
	return New(InvoiceSchema())
}

// Extract decodes the payload and maps it through the schema. A payload
// that is not valid JSON returns a *ParseError; anything else succeeds,
// degrading unresolved fields to anomalies. Unknown input fields are
// ignored.
func (e *Extractor) Extract(payload string) (*Result, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, &ParseError{Err: err}
	}

	res := &Result{Extracted: make(map[string]any)}
	for _, fm := range e.schema {
		if fm.Items != nil {
			if items, ok := extractItems(data, fm.Items); ok {
				res.Extracted[fm.Target] = items
			} else {
				res.Anomalies = append(res.Anomalies,
					fmt.Sprintf("missing field: %s (mapped from '%s')", fm.Target, strings.Join(itemListKeys, "/")))
			}
			continue
		}

		if v, ok := lookupPath(data, fm.Source); ok {
			res.Extracted[fm.Target] = v
		} else {
			res.Anomalies = append(res.Anomalies,
				fmt.Sprintf("missing field: %s (mapped from '%s')", fm.Target, fm.Source))
		}
	}
	return res, nil
}

// lookupPath walks a dotted path through nested objects. Key matching is
// case-insensitive and depth-first; the first matching leaf wins. Exact
// matches are preferred, then remaining keys in sorted order, so resolution
// is deterministic regardless of map iteration order.
func lookupPath(data map[string]any, path string) (any, bool) {
	return lookupKeys(data, strings.Split(path, "."))
}

func lookupKeys(data map[string]any, keys []string) (any, bool) {
	if len(data) == 0 || len(keys) == 0 {
		return nil, false
	}

	v, ok := matchKey(data, keys[0])
	if !ok {
		return nil, false
	}
	if len(keys) == 1 {
		if v == nil {
			return nil, false
		}
		return v, true
	}
	child, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return lookupKeys(child, keys[1:])
}

func matchKey(data map[string]any, key string) (any, bool) {
	if v, ok := data[key]; ok {
		return v, true
	}
	names := make([]string, 0, len(data))
	for k := range data {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if strings.EqualFold(k, key) {
			return data[k], true
		}
	}
	return nil, false
}

// extractItems finds the line-item list under the first present candidate
// key and maps each element through the nested schema independently.
// Elements that resolve to nothing are dropped.
func extractItems(data map[string]any, itemSchema []FieldMapping) ([]map[string]any, bool) {
	var list []any
	found := false
	for _, candidate := range itemListKeys {
		if v, ok := matchKey(data, candidate); ok {
			if l, isList := v.([]any); isList {
				list = l
				found = true
				break
			}
		}
	}
	if !found {
		return nil, false
	}

	items := make([]map[string]any, 0, len(list))
	for _, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		item := make(map[string]any)
		for _, fm := range itemSchema {
			if v, ok := lookupPath(obj, fm.Source); ok {
				item[fm.Target] = v
			}
		}
		if len(item) > 0 {
			items = append(items, item)
		}
	}
	return items, true
}
