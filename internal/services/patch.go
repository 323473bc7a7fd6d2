package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"finances-api/internal/dto"
	"finances-api/internal/validation"

	"github.com/shopspring/decimal"
)

const (
	UnknownFieldMessage  = "unknown field"
	InvalidStringMessage = "Not a valid string."
	InvalidNumberMessage = "A valid number is required."
	BlankFieldMessage    = "This field may not be blank."

	moneyPrecisionFormat = "Must be a decimal amount with at most %d decimal places."
)

// patchApplier decodes one field of a partial update.
// A non-empty return rejects the field with that message.
type patchApplier func(raw json.RawMessage) string

// applyPatch runs the applier registered for every field in patch.
// Fields without an applier are rejected, and all rejections are reported together.
func applyPatch(patch dto.PatchRequest, appliers map[string]patchApplier) error {
	fieldErrors := validation.FieldErrors{}
	for field, raw := range patch {
		apply, ok := appliers[field]
		if !ok {
			fieldErrors.Add(field, UnknownFieldMessage)
			continue
		}
		if msg := apply(raw); msg != "" {
			fieldErrors.Add(field, msg)
		}
	}

	if !fieldErrors.Empty() {
		return fieldErrors
	}
	return nil
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeNonBlank accepts a string with at most maxLen runes that is not only whitespace
func decodeNonBlank(raw json.RawMessage, maxLen int, target *string) string {
	s, ok := decodeString(raw)
	if !ok {
		return InvalidStringMessage
	}
	if strings.TrimSpace(s) == "" {
		return BlankFieldMessage
	}
	if maxLen > 0 && len([]rune(s)) > maxLen {
		return maxLengthMessage(maxLen)
	}
	*target = s
	return ""
}

// decodeMoney accepts a JSON number or numeric string with at most two decimal places
func decodeMoney(raw json.RawMessage, target *decimal.Decimal) string {
	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil {
		return InvalidNumberMessage
	}
	if d.Exponent() < -validation.MaxMoneyPlaces && !d.Equal(d.Round(validation.MaxMoneyPlaces)) {
		return fmt.Sprintf(moneyPrecisionFormat, validation.MaxMoneyPlaces)
	}
	*target = d
	return ""
}

func maxLengthMessage(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}
