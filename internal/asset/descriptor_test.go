package asset

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"testing"
)

func TestDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name      string
		d         Descriptor
		wantField string
	}{
		{"default", DefaultDescriptor(), ""},
		{"zero values", Descriptor{}, ""},
		{"max lengths", Descriptor{AssetName: strings.Repeat("a", 32), UnitName: strings.Repeat("u", 8)}, ""},
		{"max total", Descriptor{Total: MaxSafeTotal}, ""},
		{"max decimals", Descriptor{Decimals: 19}, ""},
		{"name too long", Descriptor{AssetName: strings.Repeat("a", 33)}, FieldAssetName},
		{"unit too long", Descriptor{UnitName: strings.Repeat("u", 9)}, FieldUnitName},
		{"total over safe max", Descriptor{Total: MaxSafeTotal + 1}, FieldTotal},
		{"decimals over max", Descriptor{Decimals: 20}, FieldDecimals},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error is %T, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestMaxSafeTotal(t *testing.T) {
	if MaxSafeTotal != 9_007_199_254_740_991 {
		t.Errorf("MaxSafeTotal = %d", MaxSafeTotal)
	}
}

func TestParseDescriptor(t *testing.T) {
	form := url.Values{
		FieldAssetName: {"Bitcoin"},
		FieldUnitName:  {"BTC"},
		FieldTotal:     {"2100000000000000"},
		FieldDecimals:  {"8"},
	}

	d, err := ParseDescriptor(form)
	if err != nil {
		t.Fatalf("ParseDescriptor() error: %v", err)
	}
	if d != DefaultDescriptor() {
		t.Errorf("ParseDescriptor() = %+v, want %+v", d, DefaultDescriptor())
	}
}

func TestParseDescriptor_Rejects(t *testing.T) {
	base := func() url.Values {
		return url.Values{
			FieldAssetName: {"Coin"},
			FieldUnitName:  {"C"},
			FieldTotal:     {"1"},
			FieldDecimals:  {"0"},
		}
	}

	tests := []struct {
		name  string
		field string
		value string
	}{
		{"empty total", FieldTotal, ""},
		{"negative total", FieldTotal, "-1"},
		{"fractional total", FieldTotal, "1.5"},
		{"total over safe max", FieldTotal, strconv.FormatUint(MaxSafeTotal+1, 10)},
		{"total over uint64", FieldTotal, "18446744073709551616"},
		{"decimals over max", FieldDecimals, "20"},
		{"decimals text", FieldDecimals, "eight"},
		{"long unit", FieldUnitName, "TOOLONGXX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := base()
			form.Set(tt.field, tt.value)

			d, err := ParseDescriptor(form)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("ParseDescriptor() error = %v, want ErrValidation", err)
			}
			var verr *ValidationError
			errors.As(err, &verr)
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
			// Text fields survive a numeric parse failure so the form can be redisplayed.
			if tt.field != FieldUnitName && d.AssetName != "Coin" {
				t.Errorf("asset name lost: %q", d.AssetName)
			}
		})
	}
}
