package domain

import (
	"encoding/json"
	"sort"
)

// LegalMetadata holds values conforming to LegalSchema. Nil means null.
type LegalMetadata map[string]any

func (m LegalMetadata) Text(key string) string {
	v, ok := m[key].(string)
	if !ok {
		return ""
	}
	return v
}

func (m LegalMetadata) Strings(key string) []string {
	v, ok := m[key].([]string)
	if !ok {
		return nil
	}
	return v
}

func (m LegalMetadata) Law() string     { return m.Text(FieldLaw) }
func (m LegalMetadata) Country() string { return m.Text(FieldCountry) }
func (m LegalMetadata) DocType() string { return m.Text(FieldDocType) }

func (m LegalMetadata) Clone() LegalMetadata {
	out := make(LegalMetadata, len(m))
	for k, v := range m {
		if items, ok := v.([]string); ok {
			cp := make([]string, len(items))
			copy(cp, items)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

// JSON renders the metadata with keys in schema order.
func (m LegalMetadata) JSON() string {
	ordered := make([]byte, 0, 256)
	ordered = append(ordered, '{')
	first := true
	for _, f := range LegalSchema.fields {
		v, ok := m[f.Name]
		if !ok {
			continue
		}
		if !first {
			ordered = append(ordered, ',')
		}
		first = false
		key, _ := json.Marshal(f.Name)
		value, err := json.Marshal(v)
		if err != nil {
			value = []byte("null")
		}
		ordered = append(ordered, key...)
		ordered = append(ordered, ':')
		ordered = append(ordered, value...)
	}
	ordered = append(ordered, '}')
	return string(ordered)
}

// MetadataFilter is an exact-match conjunction over stored attributes.
type MetadataFilter map[string]string

func (f MetadataFilter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f MetadataFilter) Equal(other MetadataFilter) bool {
	if len(f) != len(other) {
		return false
	}
	for k, v := range f {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (f MetadataFilter) SubsetOf(other MetadataFilter) bool {
	for k, v := range f {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (f MetadataFilter) String() string {
	if len(f) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(map[string]string(f))
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// Matches reports whether stored metadata satisfies every constraint. A stored
// list matches when it contains the required value.
func (f MetadataFilter) Matches(stored map[string]any) bool {
	for k, want := range f {
		v, ok := stored[k]
		if !ok {
			return false
		}
		switch typed := v.(type) {
		case []any:
			found := false
			for _, item := range typed {
				if scalarString(item) == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case []string:
			found := false
			for _, item := range typed {
				if item == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			if scalarString(v) != want {
				return false
			}
		}
	}
	return true
}

// BuildMetadataFilter derives the full filter: law, country, doc_type and the
// first cited civil code, each only when present.
func BuildMetadataFilter(meta LegalMetadata) MetadataFilter {
	filter := MetadataFilter{}
	for _, key := range []string{FieldLaw, FieldCountry, FieldDocType} {
		if v := meta.Text(key); v != "" {
			filter[key] = v
		}
	}
	if codes := meta.Strings(FieldCivilCodesUsed); len(codes) > 0 && codes[0] != "" {
		filter[FieldCivilCodesUsed] = codes[0]
	}
	return filter
}

type FilterTier struct {
	Name   string
	Filter MetadataFilter
}

// FilterTiers returns full, law+country and law-only filters. Each later tier
// is a subset of the one before it.
func FilterTiers(full MetadataFilter) []FilterTier {
	if full == nil {
		full = MetadataFilter{}
	}
	lawCountry := MetadataFilter{}
	lawOnly := MetadataFilter{}
	if law, ok := full[FieldLaw]; ok {
		lawCountry[FieldLaw] = law
		lawOnly[FieldLaw] = law
	}
	if country, ok := full[FieldCountry]; ok {
		lawCountry[FieldCountry] = country
	}
	return []FilterTier{
		{Name: "primary (full filter)", Filter: full},
		{Name: "fallback-1 (law+country)", Filter: lawCountry},
		{Name: "fallback-2 (law only)", Filter: lawOnly},
	}
}
