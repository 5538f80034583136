package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/maisondudroit/entretien"
	"github.com/maisondudroit/entretien/internal"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// submissionBody is the POST /api/v1/entretiens payload. Choice fields may be
// sent as code or label; demandes and solutions are labels in selection order.
type submissionBody struct {
	Fields    map[string]any `json:"fields"`
	Demandes  []string       `json:"demandes"`
	Solutions []string       `json:"solutions"`
}

// parseRecordPath parses /api/v1/entretiens/{num}
func parseRecordPath(path string) (int64, error) {
	path = strings.TrimPrefix(path, "/api/v1/entretiens/")
	path = strings.Trim(path, "/")
	if path == "" || strings.Contains(path, "/") {
		return 0, fmt.Errorf("invalid path format")
	}
	num, err := strconv.ParseInt(path, 10, 64)
	if err != nil || num <= 0 {
		return 0, fmt.Errorf("invalid record number %q", path)
	}
	return num, nil
}

// prepareSubmission maps choice labels to codes, strips markup from free
// text, validates against the form schema and converts values to the types
// the columns expect.
func prepareSubmission(def *entretien.FormDefinition, body *submissionBody, policy *bluemonday.Policy) (*entretien.Submission, error) {
	byName := make(map[string]entretien.FieldDescriptor)
	for _, f := range def.Parent.Fields() {
		byName[f.Name] = f
	}

	raw := make(map[string]any, len(body.Fields))
	for name, value := range body.Fields {
		field, known := byName[name]
		if str, ok := value.(string); ok && known {
			switch field.Widget() {
			case entretien.WidgetSelect:
				value = field.Choices.ResolveCode(str)
			case entretien.WidgetText:
				value = policy.Sanitize(str)
			}
		}
		raw[name] = value
	}

	if err := internal.ValidateParentRecord(def.Parent, raw); err != nil {
		return nil, err
	}

	parent := make(entretien.ParentRecord, len(raw))
	for name, value := range raw {
		field := byName[name]
		switch v := value.(type) {
		case string:
			if field.Widget() == entretien.WidgetDate {
				coerced, err := internal.CoerceFieldValue(field, v)
				if err != nil {
					return nil, err
				}
				parent[name] = coerced
				continue
			}
			parent[name] = v
		case float64:
			if strings.Contains(strings.ToLower(field.DeclaredType), "int") && v == math.Trunc(v) {
				parent[name] = int64(v)
				continue
			}
			parent[name] = v
		default:
			parent[name] = v
		}
	}

	return &entretien.Submission{
		Fields:    parent,
		Demandes:  body.Demandes,
		Solutions: body.Solutions,
	}, nil
}

type requestIDKey struct{}

// withRequestID tags every request with an X-Request-ID, generating one when
// the client did not send it.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		zap.S().Debugw("handling request", "method", r.Method, "path", r.URL.Path, "request_id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

// APIResponse is the standard error response format
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// writeJSON writes JSON response to http.ResponseWriter
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, statusCode int, data interface{}) error {
	return writeJSON(w, statusCode, data)
}

// readJSONBody reads and decodes JSON from request body
func readJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
