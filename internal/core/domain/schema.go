package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type FieldType string

const (
	FieldString  FieldType = "string"
	FieldArray   FieldType = "array"
	FieldInteger FieldType = "integer"
	FieldBoolean FieldType = "boolean"
)

// CaseFold controls how raw text is folded before an enum or synonym lookup.
type CaseFold int

const (
	FoldNone CaseFold = iota
	FoldUpper
	FoldLower
)

// FieldSpec declares one extractable attribute.
type FieldSpec struct {
	Name        string
	Type        FieldType
	Enum        []string
	Required    bool
	Description string

	// Synonyms maps folded raw values to canonical enum values. When set,
	// values missing from the table are dropped.
	Synonyms map[string]string
	Fold     CaseFold
}

// MetadataSchema is an ordered, closed set of fields. The declaration order is
// also the order used when metadata is rendered as a constraint string.
type MetadataSchema struct {
	fields []FieldSpec
	index  map[string]int
}

func NewMetadataSchema(fields ...FieldSpec) *MetadataSchema {
	s := &MetadataSchema{
		fields: make([]FieldSpec, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if i, ok := s.index[f.Name]; ok {
			s.fields[i] = f
			continue
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s
}

func (s *MetadataSchema) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *MetadataSchema) Field(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// Defaults returns a complete metadata value: arrays empty, everything else null.
func (s *MetadataSchema) Defaults() LegalMetadata {
	out := make(LegalMetadata, len(s.fields))
	for _, f := range s.fields {
		if f.Type == FieldArray {
			out[f.Name] = []string{}
			continue
		}
		out[f.Name] = nil
	}
	return out
}

// Conform merges raw values over the defaults. Unknown keys are dropped and
// malformed or unrecognized values fall back to the field default.
func (s *MetadataSchema) Conform(raw map[string]any) LegalMetadata {
	out := s.Defaults()
	for _, f := range s.fields {
		v, ok := raw[f.Name]
		if !ok || v == nil {
			continue
		}
		if conformed := f.conform(v); conformed != nil {
			out[f.Name] = conformed
		}
	}
	return out
}

func (s *MetadataSchema) Normalize(name string, v any) any {
	f, ok := s.Field(name)
	if !ok || v == nil {
		return nil
	}
	return f.conform(v)
}

func (f FieldSpec) conform(v any) any {
	switch f.Type {
	case FieldArray:
		items := toStringSlice(v)
		if items == nil {
			return nil
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if canonical, ok := f.canonical(item); ok {
				out = append(out, canonical)
			}
		}
		return out
	case FieldInteger:
		n, ok := toInt(v)
		if !ok {
			return nil
		}
		return n
	case FieldBoolean:
		b, ok := toBool(v)
		if !ok {
			return nil
		}
		return b
	default:
		text := scalarString(v)
		if text == "" {
			return nil
		}
		canonical, ok := f.canonical(text)
		if !ok {
			return nil
		}
		return canonical
	}
}

func (f FieldSpec) canonical(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", false
	}
	switch f.Fold {
	case FoldUpper:
		text = strings.ToUpper(text)
	case FoldLower:
		text = strings.ToLower(text)
	}
	if f.Synonyms != nil {
		mapped, ok := f.Synonyms[text]
		return mapped, ok
	}
	if len(f.Enum) == 0 {
		return text, true
	}
	for _, allowed := range f.Enum {
		if strings.EqualFold(allowed, text) {
			return allowed, true
		}
	}
	return "", false
}

// JSONSchema renders the schema as an indented JSON Schema object, properties
// in declaration order.
func (s *MetadataSchema) JSONSchema() string {
	type property struct {
		Type        FieldType         `json:"type"`
		Items       map[string]string `json:"items,omitempty"`
		Enum        []string          `json:"enum,omitempty"`
		Description string            `json:"description"`
	}

	var props bytes.Buffer
	props.WriteString("{")
	required := make([]string, 0, 1)
	for i, f := range s.fields {
		if i > 0 {
			props.WriteString(",")
		}
		p := property{Type: f.Type, Enum: f.Enum, Description: f.Description}
		if f.Type == FieldArray {
			p.Items = map[string]string{"type": "string"}
		}
		key, _ := json.Marshal(f.Name)
		value, _ := json.Marshal(p)
		props.Write(key)
		props.WriteString(":")
		props.Write(value)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	props.WriteString("}")

	requiredJSON, _ := json.Marshal(required)
	doc := fmt.Sprintf(`{"type":"object","properties":%s,"required":%s,"additionalProperties":false}`, props.String(), requiredJSON)

	var out bytes.Buffer
	if err := json.Indent(&out, []byte(doc), "", "  "); err != nil {
		return doc
	}
	return out.String()
}

// FormatConstraints renders metadata as "key: value" pairs joined by "; " in
// schema order. Null and empty values are omitted except for required fields.
func (s *MetadataSchema) FormatConstraints(meta LegalMetadata) string {
	parts := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		v, ok := meta[f.Name]
		if !ok && !f.Required {
			continue
		}
		if !f.Required && isEmptyValue(v) {
			continue
		}
		parts = append(parts, f.Name+": "+formatValue(v))
	}
	if len(parts) == 0 {
		return "law: null"
	}
	return strings.Join(parts, "; ")
}

func formatValue(v any) string {
	switch typed := v.(type) {
	case nil:
		return "null"
	case []string:
		return "[" + strings.Join(typed, ", ") + "]"
	case []any:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprint(item))
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return fmt.Sprint(typed)
	}
}

func isEmptyValue(v any) bool {
	switch typed := v.(type) {
	case nil:
		return true
	case []string:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	case string:
		return typed == ""
	default:
		return false
	}
}

func scalarString(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case bool:
		return strconv.FormatBool(typed)
	case json.Number:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

func toStringSlice(v any) []string {
	switch typed := v.(type) {
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if text := scalarString(item); text != "" {
				out = append(out, text)
			}
		}
		return out
	case string:
		if strings.TrimSpace(typed) == "" {
			return []string{}
		}
		return []string{typed}
	default:
		return nil
	}
}

func toInt(v any) (int, bool) {
	switch typed := v.(type) {
	case int:
		return typed, true
	case int64:
		return int(typed), true
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) || typed != math.Trunc(typed) {
			return 0, false
		}
		return int(typed), true
	case json.Number:
		n, err := typed.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(typed))
		return n, err == nil
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	switch typed := v.(type) {
	case bool:
		return typed, true
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "true", "yes":
			return true, true
		case "false", "no":
			return false, true
		}
	}
	return false, false
}
