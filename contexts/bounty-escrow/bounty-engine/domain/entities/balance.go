package entities

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// maxBalanceBits bounds every balance to the u128 range used by token contracts.
const maxBalanceBits = 128

var errInvalidBalance = errors.New("invalid balance")

// Balance is an amount in the smallest unit of an asset. The zero value is 0.
type Balance struct {
	v uint256.Int
}

func NewBalance(amount uint64) Balance {
	var b Balance
	b.v.SetUint64(amount)
	return b
}

func ParseBalance(raw string) (Balance, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "+") || strings.HasPrefix(raw, "-") {
		return Balance{}, errInvalidBalance
	}
	parsed, err := uint256.FromDecimal(raw)
	if err != nil {
		return Balance{}, fmt.Errorf("%w: %s", errInvalidBalance, err.Error())
	}
	if parsed.BitLen() > maxBalanceBits {
		return Balance{}, fmt.Errorf("%w: exceeds u128", errInvalidBalance)
	}
	return Balance{v: *parsed}, nil
}

func MustParseBalance(raw string) Balance {
	b, err := ParseBalance(raw)
	if err != nil {
		panic(err)
	}
	return b
}

func (b Balance) String() string {
	return b.v.Dec()
}

func (b Balance) IsZero() bool {
	return b.v.IsZero()
}

func (b Balance) Cmp(other Balance) int {
	return b.v.Cmp(&other.v)
}

func (b Balance) LessThan(other Balance) bool {
	return b.v.Lt(&other.v)
}

// Add returns b+other; ok is false when the sum leaves the u128 range.
func (b Balance) Add(other Balance) (Balance, bool) {
	var out Balance
	_, overflow := out.v.AddOverflow(&b.v, &other.v)
	if overflow || out.v.BitLen() > maxBalanceBits {
		return Balance{}, false
	}
	return out, true
}

// Sub returns b-other; ok is false when other > b.
func (b Balance) Sub(other Balance) (Balance, bool) {
	var out Balance
	if _, underflow := out.v.SubOverflow(&b.v, &other.v); underflow {
		return Balance{}, false
	}
	return out, true
}

// SaturatingSub returns b-other, or zero when other > b.
func (b Balance) SaturatingSub(other Balance) Balance {
	out, ok := b.Sub(other)
	if !ok {
		return Balance{}
	}
	return out
}

// PercentFloor returns floor(b * pct / 100). The product of a u128 and a
// percentage always fits in 256 bits, so the division is exact integer math.
func (b Balance) PercentFloor(pct uint8) Balance {
	var out Balance
	out.v.Mul(&b.v, uint256.NewInt(uint64(pct)))
	out.v.Div(&out.v, uint256.NewInt(100))
	return out
}

// Float64 is lossy and only meant for metrics.
func (b Balance) Float64() float64 {
	value, _ := strconv.ParseFloat(b.String(), 64)
	return value
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON accepts a decimal string or a bare JSON integer.
func (b *Balance) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return errInvalidBalance
	}
	if strings.HasPrefix(raw, "\"") {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		raw = text
	}
	parsed, err := ParseBalance(raw)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func (b Balance) Value() (driver.Value, error) {
	return b.String(), nil
}

func (b *Balance) Scan(src any) error {
	switch value := src.(type) {
	case nil:
		*b = Balance{}
		return nil
	case string:
		return b.scanText(value)
	case []byte:
		return b.scanText(string(value))
	case int64:
		if value < 0 {
			return errInvalidBalance
		}
		*b = NewBalance(uint64(value))
		return nil
	default:
		return fmt.Errorf("%w: unsupported scan type %T", errInvalidBalance, src)
	}
}

func (b *Balance) scanText(raw string) error {
	// numeric columns may come back with a trailing scale, e.g. "10.0".
	if idx := strings.IndexByte(raw, '.'); idx >= 0 {
		if strings.Trim(raw[idx+1:], "0") != "" {
			return fmt.Errorf("%w: fractional value %q", errInvalidBalance, raw)
		}
		raw = raw[:idx]
	}
	parsed, err := ParseBalance(raw)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
