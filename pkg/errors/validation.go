package errors

import (
	"strings"
	"unicode"
)

// MaxIdentifierLength bounds item codes and material identifiers.
const MaxIdentifierLength = 128

// ValidateItemCode validates an item code received from an untrusted source
// (analysis files, API request bodies). Codes are otherwise opaque: any
// non-empty string of at most MaxIdentifierLength characters without
// control characters is accepted.
func ValidateItemCode(code string) error {
	if code == "" {
		return New(ErrCodeInvalidItemCode, "item code cannot be empty")
	}
	if len(code) > MaxIdentifierLength {
		return New(ErrCodeInvalidItemCode, "item code too long (max %d characters)", MaxIdentifierLength)
	}
	for _, r := range code {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidItemCode, "item code contains invalid control characters")
		}
	}
	return nil
}

// ValidateManualItemCode validates an item code named in a manual sequence.
// On top of [ValidateItemCode] it rejects the separators of the
// "(item,layer), ..." syntax.
func ValidateManualItemCode(code string) error {
	if err := ValidateItemCode(code); err != nil {
		return err
	}
	if strings.ContainsAny(code, "(),") {
		return New(ErrCodeInvalidItemCode, "item code %q contains a reserved character", code)
	}
	return nil
}

// ValidateMaterialID validates a single material identifier.
// Commas are rejected because material lists are comma-separated.
func ValidateMaterialID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidInput, "material identifier cannot be empty")
	}
	if len(id) > MaxIdentifierLength {
		return New(ErrCodeInvalidInput, "material identifier too long (max %d characters)", MaxIdentifierLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "material identifier contains invalid control characters")
		}
	}
	if strings.Contains(id, ",") {
		return New(ErrCodeInvalidInput, "material identifier %q contains a comma", id)
	}
	return nil
}
