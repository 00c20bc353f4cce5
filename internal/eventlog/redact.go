package eventlog

import "strings"

// MaskToken replaces sensitive values wherever redaction applies.
const MaskToken = "******"

// Redactor masks configured sensitive field names (case-insensitive) at
// entry construction and context merge time. Redaction is irreversible and
// always produces a new map.
type Redactor struct {
	fields map[string]struct{}
}

// NewRedactor builds a redactor for the given field names. A nil or empty
// list yields a redactor that passes everything through.
func NewRedactor(fields []string) *Redactor {
	set := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.ToLower(strings.TrimSpace(field))
		if field != "" {
			set[field] = struct{}{}
		}
	}
	return &Redactor{fields: set}
}

// Sensitive reports whether key is masked by this redactor.
func (r *Redactor) Sensitive(key string) bool {
	if r == nil || len(r.fields) == 0 {
		return false
	}
	_, ok := r.fields[strings.ToLower(key)]
	return ok
}

// Apply returns a copy of fields with sensitive top-level values replaced
// by the mask token. The input map is never mutated.
func (r *Redactor) Apply(fields Fields) Fields {
	if fields == nil {
		return nil
	}
	out := make(Fields, len(fields))
	for key, value := range fields {
		if r.Sensitive(key) {
			out[key] = MaskToken
			continue
		}
		out[key] = value
	}
	return out
}
