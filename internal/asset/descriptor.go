// Package asset builds one-shot asset creation transactions from form input.
package asset

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Field limits enforced on user input.
const (
	MaxAssetNameLen = 32
	MaxUnitNameLen  = 8
	MaxDecimals     = 19

	// MaxSafeTotal is the largest integer the signing widget's runtime can
	// represent exactly (2^53-1). The ledger field itself is 64 bits.
	MaxSafeTotal uint64 = 1<<53 - 1
)

// Form field names shared by the HTML form and ParseDescriptor.
const (
	FieldAssetName = "asset_name"
	FieldUnitName  = "unit_name"
	FieldTotal     = "total"
	FieldDecimals  = "decimals"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("invalid asset parameters")

// ValidationError reports an out-of-range form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Descriptor is the user-supplied draft of an asset.
type Descriptor struct {
	AssetName string `json:"asset_name"`
	UnitName  string `json:"unit_name"`
	Total     uint64 `json:"total"`
	Decimals  uint32 `json:"decimals"`
}

// DefaultDescriptor returns the prefilled example shown in a fresh form.
func DefaultDescriptor() Descriptor {
	return Descriptor{
		AssetName: "Bitcoin",
		UnitName:  "BTC",
		Total:     2_100_000_000_000_000,
		Decimals:  8,
	}
}

// Validate checks every field against its limit.
func (d Descriptor) Validate() error {
	if len(d.AssetName) > MaxAssetNameLen {
		return &ValidationError{Field: FieldAssetName, Reason: fmt.Sprintf("at most %d bytes", MaxAssetNameLen)}
	}
	if len(d.UnitName) > MaxUnitNameLen {
		return &ValidationError{Field: FieldUnitName, Reason: fmt.Sprintf("at most %d bytes", MaxUnitNameLen)}
	}
	if d.Total > MaxSafeTotal {
		return &ValidationError{Field: FieldTotal, Reason: fmt.Sprintf("must be between 0 and %d", MaxSafeTotal)}
	}
	if d.Decimals > MaxDecimals {
		return &ValidationError{Field: FieldDecimals, Reason: fmt.Sprintf("must be between 0 and %d", MaxDecimals)}
	}
	return nil
}

// ParseDescriptor reads and validates the four form fields.
// Out-of-range values are rejected rather than clamped.
func ParseDescriptor(form url.Values) (Descriptor, error) {
	d := Descriptor{
		AssetName: form.Get(FieldAssetName),
		UnitName:  form.Get(FieldUnitName),
	}

	total, err := parseUint(form.Get(FieldTotal), FieldTotal, MaxSafeTotal)
	if err != nil {
		return d, err
	}
	d.Total = total

	decimals, err := parseUint(form.Get(FieldDecimals), FieldDecimals, MaxDecimals)
	if err != nil {
		return d, err
	}
	d.Decimals = uint32(decimals)

	return d, d.Validate()
}

func parseUint(s, field string, max uint64) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: field, Reason: "required"}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v > max {
		return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("must be a whole number between 0 and %d", max)}
	}
	return v, nil
}
