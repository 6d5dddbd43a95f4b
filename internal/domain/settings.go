package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// SettingKind tags the runtime type of a polymorphic settings value.
type SettingKind string

const (
	SettingKindBool   SettingKind = "bool"
	SettingKindNumber SettingKind = "number"
	SettingKindString SettingKind = "string"
	SettingKindArray  SettingKind = "array"
	SettingKindJSON   SettingKind = "json"
)

// SettingValue is a tagged union: exactly the field matching Kind is set.
// Values are resolved once at the configuration boundary; the core only
// ever sees the typed Settings snapshot below.
type SettingValue struct {
	Kind   SettingKind
	Bool   bool
	Number decimal.Decimal
	Str    string
	Array  []string
	JSON   map[string]any
}

// Setting is one raw settings row as stored.
type Setting struct {
	Key   string
	Value SettingValue
}

// ParseSettingValue decodes a raw JSON settings payload under its kind tag.
func ParseSettingValue(kind SettingKind, raw []byte) (SettingValue, error) {
	v := SettingValue{Kind: kind}
	switch kind {
	case SettingKindBool:
		if err := json.Unmarshal(raw, &v.Bool); err != nil {
			return v, fmt.Errorf("setting kind bool: %w", err)
		}
	case SettingKindNumber:
		var s json.Number
		if err := json.Unmarshal(raw, &s); err != nil {
			return v, fmt.Errorf("setting kind number: %w", err)
		}
		d, err := decimal.NewFromString(s.String())
		if err != nil {
			return v, fmt.Errorf("setting kind number: %w", err)
		}
		v.Number = d
	case SettingKindString:
		if err := json.Unmarshal(raw, &v.Str); err != nil {
			return v, fmt.Errorf("setting kind string: %w", err)
		}
	case SettingKindArray:
		if err := json.Unmarshal(raw, &v.Array); err != nil {
			return v, fmt.Errorf("setting kind array: %w", err)
		}
	case SettingKindJSON:
		if err := json.Unmarshal(raw, &v.JSON); err != nil {
			return v, fmt.Errorf("setting kind json: %w", err)
		}
	default:
		return v, fmt.Errorf("unknown setting kind %q", kind)
	}
	return v, nil
}

// Settings is an immutable, versioned configuration snapshot. Operations
// take the snapshot active when they start, so settlement math is
// reproducible given the version in effect at settlement time.
type Settings struct {
	Version              int64
	FeePercentage        decimal.Decimal
	Currency             string
	MinWithdrawal        int64
	MaxWithdrawal        int64
	DailyWithdrawalLimit int64
	AutoResolveEnabled   bool
	ResolveConfidenceMin float64
}

// Settings keys recognized by ResolveSettings.
const (
	SettingKeyFeePercentage        = "fee_percentage"
	SettingKeyCurrency             = "currency"
	SettingKeyMinWithdrawal        = "min_withdrawal"
	SettingKeyMaxWithdrawal        = "max_withdrawal"
	SettingKeyDailyWithdrawalLimit = "daily_withdrawal_limit"
	SettingKeyAutoResolveEnabled   = "auto_resolve_enabled"
	SettingKeyResolveConfidenceMin = "resolve_confidence_min"
)

// ResolveSettings overlays stored settings rows onto defaults, ignoring
// rows whose kind does not match the key's expected type.
func ResolveSettings(defaults Settings, version int64, rows []Setting) Settings {
	s := defaults
	s.Version = version
	for _, row := range rows {
		switch row.Key {
		case SettingKeyFeePercentage:
			if row.Value.Kind == SettingKindNumber {
				s.FeePercentage = row.Value.Number
			}
		case SettingKeyCurrency:
			if row.Value.Kind == SettingKindString {
				s.Currency = row.Value.Str
			}
		case SettingKeyMinWithdrawal:
			if row.Value.Kind == SettingKindNumber {
				s.MinWithdrawal = row.Value.Number.IntPart()
			}
		case SettingKeyMaxWithdrawal:
			if row.Value.Kind == SettingKindNumber {
				s.MaxWithdrawal = row.Value.Number.IntPart()
			}
		case SettingKeyDailyWithdrawalLimit:
			if row.Value.Kind == SettingKindNumber {
				s.DailyWithdrawalLimit = row.Value.Number.IntPart()
			}
		case SettingKeyAutoResolveEnabled:
			if row.Value.Kind == SettingKindBool {
				s.AutoResolveEnabled = row.Value.Bool
			}
		case SettingKeyResolveConfidenceMin:
			if row.Value.Kind == SettingKindNumber {
				s.ResolveConfidenceMin, _ = row.Value.Number.Float64()
			}
		}
	}
	return s
}
