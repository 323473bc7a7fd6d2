package dto

import (
	"encoding/json"
	"fmt"
)

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}

// NoRecords is returned in place of an empty list
func NoRecords(resource string) MessageResponse {
	return MessageResponse{Message: fmt.Sprintf("There are no registered %s.", resource)}
}

// PatchRequest holds the raw fields of a partial update, keyed by JSON name.
// Each service decodes the fields it knows and rejects the rest.
type PatchRequest map[string]json.RawMessage
