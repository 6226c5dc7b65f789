package migration

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Outcome classifies the result of transforming one stored payload row.
// Replacing catch-and-log with an explicit per-row outcome lets callers
// aggregate exact counts instead of grepping logs.
type Outcome int

const (
	// OutcomeApplied means the payload was transformed and must be written back.
	OutcomeApplied Outcome = iota
	// OutcomeUnchanged means the payload was valid but nothing needed changing.
	OutcomeUnchanged
	// OutcomeSkippedInvalid means the payload was malformed and was preserved
	// as-is. One malformed blob must never block every other row from
	// migrating, so this is a warning, not a failure.
	OutcomeSkippedInvalid
)

// TransformStats aggregates per-row outcomes across a data migration.
type TransformStats struct {
	Applied   int
	Unchanged int
	Skipped   int
}

func (s *TransformStats) record(outcome Outcome) {
	switch outcome {
	case OutcomeApplied:
		s.Applied++
	case OutcomeUnchanged:
		s.Unchanged++
	case OutcomeSkippedInvalid:
		s.Skipped++
	}
}

// LayoutShape tags the recognized widget layout payload variants.
type LayoutShape int

const (
	// LayoutShapeUnknown covers payloads that are valid JSON but not a
	// recognized layout variant; they pass through untouched.
	LayoutShapeUnknown LayoutShape = iota
	// LayoutShapeWidgetArray is a bare JSON array of widget descriptors.
	LayoutShapeWidgetArray
	// LayoutShapeBoardObject is an object carrying a "widgets" array field.
	LayoutShapeBoardObject
)

// LayoutDocument is a parsed widget layout payload. Widget descriptors are
// kept as generic maps so fields the engine does not understand survive a
// rewrite byte-for-value.
type LayoutDocument struct {
	Shape   LayoutShape
	widgets []any
	root    map[string]any
}

// ParseLayoutDocument decodes a layout payload and detects its shape.
func ParseLayoutDocument(raw string) (*LayoutDocument, error) {
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	switch typed := value.(type) {
	case []any:
		return &LayoutDocument{Shape: LayoutShapeWidgetArray, widgets: typed}, nil
	case map[string]any:
		if widgets, ok := typed["widgets"].([]any); ok {
			return &LayoutDocument{Shape: LayoutShapeBoardObject, widgets: widgets, root: typed}, nil
		}
		return &LayoutDocument{Shape: LayoutShapeUnknown}, nil
	default:
		return &LayoutDocument{Shape: LayoutShapeUnknown}, nil
	}
}

// ScaleHeights multiplies every numeric height on every widget descriptor by
// factor: the descriptor's own "h", layouts.lg.h, layouts.sm.h, and layout.h,
// each independently. Absent paths are skipped; non-numeric values at these
// paths are left untouched. Returns how many height values were scaled.
func (d *LayoutDocument) ScaleHeights(factor float64) int {
	if d == nil || d.Shape == LayoutShapeUnknown {
		return 0
	}

	scaled := 0
	for _, entry := range d.widgets {
		widget, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		if scaleNumericField(widget, "h", factor) {
			scaled++
		}
		if layouts, ok := widget["layouts"].(map[string]any); ok {
			for _, breakpoint := range []string{"lg", "sm"} {
				if nested, ok := layouts[breakpoint].(map[string]any); ok {
					if scaleNumericField(nested, "h", factor) {
						scaled++
					}
				}
			}
		}
		if layout, ok := widget["layout"].(map[string]any); ok {
			if scaleNumericField(layout, "h", factor) {
				scaled++
			}
		}
	}
	return scaled
}

// Normalize rewrites a bare widget array into the object variant. Returns
// false when the document is already an object or unrecognized.
func (d *LayoutDocument) Normalize() bool {
	if d == nil || d.Shape != LayoutShapeWidgetArray {
		return false
	}
	d.root = map[string]any{"widgets": d.widgets}
	d.Shape = LayoutShapeBoardObject
	return true
}

// Encode serializes the document back to its JSON form.
func (d *LayoutDocument) Encode() (string, error) {
	var value any
	switch d.Shape {
	case LayoutShapeWidgetArray:
		value = d.widgets
	case LayoutShapeBoardObject:
		value = d.root
	default:
		return "", errors.New("migration: cannot encode unrecognized layout shape")
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func scaleNumericField(m map[string]any, key string, factor float64) bool {
	value, ok := m[key]
	if !ok {
		return false
	}
	switch number := value.(type) {
	case json.Number:
		parsed, err := number.Float64()
		if err != nil {
			return false
		}
		m[key] = parsed * factor
		return true
	case float64:
		m[key] = number * factor
		return true
	default:
		return false
	}
}

// ScaleWidgetHeights parses a stored layout payload, scales every widget
// height by factor, and re-serializes. Nil or blank input is a no-op, not an
// error. Invalid JSON and unrecognized shapes are returned unchanged; invalid
// JSON additionally reports OutcomeSkippedInvalid so the caller can count it.
// The helper keeps no state; not calling it twice on the same row within one
// migration is the caller's responsibility.
func ScaleWidgetHeights(raw *string, factor float64) (*string, Outcome) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return raw, OutcomeUnchanged
	}

	document, err := ParseLayoutDocument(*raw)
	if err != nil {
		return raw, OutcomeSkippedInvalid
	}
	if document.Shape == LayoutShapeUnknown {
		return raw, OutcomeUnchanged
	}

	if document.ScaleHeights(factor) == 0 {
		return raw, OutcomeUnchanged
	}

	encoded, err := document.Encode()
	if err != nil {
		return raw, OutcomeSkippedInvalid
	}
	return &encoded, OutcomeApplied
}

// NormalizeBoardLayout wraps a legacy bare widget array into the object
// variant. Same outcome semantics as ScaleWidgetHeights.
func NormalizeBoardLayout(raw *string) (*string, Outcome) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return raw, OutcomeUnchanged
	}

	document, err := ParseLayoutDocument(*raw)
	if err != nil {
		return raw, OutcomeSkippedInvalid
	}
	if !document.Normalize() {
		return raw, OutcomeUnchanged
	}

	encoded, err := document.Encode()
	if err != nil {
		return raw, OutcomeSkippedInvalid
	}
	return &encoded, OutcomeApplied
}
