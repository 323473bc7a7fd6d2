package validation

import (
	"errors"
	"sort"
	"strings"
)

// RequiredMessage is reported for every missing required field
const RequiredMessage = "This field is required."

// FieldErrors maps a request field to the reason it was rejected
type FieldErrors map[string]string

// Add records msg for field, keeping the first message reported for it
func (fe FieldErrors) Add(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}

func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// Fields returns the rejected field names in sorted order
func (fe FieldErrors) Fields() []string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, field := range fe.Fields() {
		parts = append(parts, field+": "+fe[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Required builds the error for a single missing field
func Required(field string) FieldErrors {
	return FieldErrors{field: RequiredMessage}
}

// AsFieldErrors extracts FieldErrors from err
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fieldErrors FieldErrors
	if errors.As(err, &fieldErrors) {
		return fieldErrors, true
	}
	return nil, false
}
