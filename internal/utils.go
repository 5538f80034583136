package internal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/maisondudroit/entretien"
)

const dateLayout = "2006-01-02"

func sanitizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, ".")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.Trim(part, " \"")
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}
	if len(clean) == 0 {
		clean = []string{name}
	}
	return pgx.Identifier(clean).Sanitize()
}

// qualifiedTable quotes namespace.table, or just table when namespace is empty.
func qualifiedTable(namespace, table string) string {
	if namespace == "" {
		return sanitizeIdentifier(table)
	}
	return pgx.Identifier{namespace, table}.Sanitize()
}

func sortedKeys[T any](source map[string]T) []string {
	keys := make([]string, 0, len(source))
	for key := range source {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// CoerceFieldValue converts raw form input into the scalar the column expects.
// Blank input on an optional field becomes NULL.
func CoerceFieldValue(field entretien.FieldDescriptor, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if field.Required {
			return nil, entretien.NewValidationError(field.Name, "value is required")
		}
		return nil, nil
	}

	switch field.Widget() {
	case entretien.WidgetDate:
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, entretien.NewValidationError(field.Name, fmt.Sprintf("expected a date like %s", dateLayout))
		}
		return d, nil
	case entretien.WidgetNumber:
		if n := tryParseNumber(raw); n != nil {
			return n, nil
		}
		return nil, entretien.NewValidationError(field.Name, "expected a number")
	default:
		return raw, nil
	}
}

func tryParseNumber(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return nil
}
