package eventlog

import (
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Category partitions buffering and index naming.
type Category string

const (
	CategoryOperation Category = "operation"
	CategoryMetadata  Category = "metadata"
	CategoryResult    Category = "result"
)

// Categories lists every category in flush order.
var Categories = []Category{CategoryOperation, CategoryMetadata, CategoryResult}

// Fields is a set of structured values attached to an entry.
type Fields map[string]any

// Entry is an immutable structured record. Construction merges the caller's
// persistent context under the entry-specific fields (entry fields win) and
// applies redaction; afterwards the entry is never mutated.
type Entry struct {
	Timestamp  time.Time
	LoggerName string
	TagName    string
	Category   Category
	fields     Fields
}

func newEntry(name, uniqueName string, category Category, redactor *Redactor, context, base, extra Fields) Entry {
	fields := make(Fields, len(context)+len(base)+len(extra))
	for _, src := range []Fields{redactor.Apply(context), redactor.Apply(base), redactor.Apply(extra)} {
		for key, value := range src {
			fields[key] = value
		}
	}
	return Entry{
		Timestamp:  time.Now().UTC(),
		LoggerName: name,
		TagName:    uniqueName,
		Category:   category,
		fields:     fields,
	}
}

// Document renders the entry as the JSON-like document shipped to the
// backend. The fixed identity fields always win over caller-supplied keys.
func (e Entry) Document() map[string]any {
	doc := make(map[string]any, len(e.fields)+3)
	for key, value := range e.fields {
		doc[key] = value
	}
	doc["timestamp"] = e.Timestamp.Format(time.RFC3339Nano)
	doc["logger_name"] = e.LoggerName
	doc["tag_name"] = e.TagName
	return doc
}

// Field returns a named field value, if present.
func (e Entry) Field(key string) (any, bool) {
	value, ok := e.fields[key]
	return value, ok
}

// indexName derives the deterministic target index for a category:
// <lowercased logger-name>_<lowercased tag>_<category>, spaces replaced
// with underscores.
func indexName(name, tag string, category Category) string {
	parts := make([]string, 0, 3)
	if s := sanitizeIndexPart(name); s != "" {
		parts = append(parts, s)
	}
	if s := sanitizeIndexPart(tag); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, string(category))
	return strings.Join(parts, "_")
}

// indexPrefix is the shared prefix of every index a logger writes,
// used for template installation.
func indexPrefix(name, tag string) string {
	prefix := sanitizeIndexPart(name)
	if s := sanitizeIndexPart(tag); s != "" {
		prefix += "_" + s
	}
	return prefix
}

func sanitizeIndexPart(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}

func copyFields(fields Fields) Fields {
	if fields == nil {
		return nil
	}
	cp := make(Fields, len(fields))
	for key, value := range fields {
		cp[key] = value
	}
	return cp
}

func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
