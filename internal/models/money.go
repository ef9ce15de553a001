package models

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// CurrencyCode is the display currency. Amounts are stored without a currency tag.
const CurrencyCode = money.USD

// ErrInvalidAmount is returned when text cannot be read as an amount
var ErrInvalidAmount = errors.New("invalid amount")

// MaxAmount bounds a single amount, one trillion. Totals of many such amounts
// still fit in int64 cents for display.
var MaxAmount = Money{value: decimal.New(1, 12)}

// Money is an exact decimal amount in major units
type Money struct {
	value decimal.Decimal
}

// NewMoney wraps a decimal value
func NewMoney(d decimal.Decimal) Money { return Money{value: d} }

// MoneyFromInt builds a whole-unit amount
func MoneyFromInt(n int64) Money { return Money{value: decimal.NewFromInt(n)} }

// MoneyFromFloat builds an amount from a float, for tests and chart input
func MoneyFromFloat(f float64) Money { return Money{value: decimal.NewFromFloat(f)} }

// ParseMoney reads user or file input. It accepts a comma as decimal separator
// ("12,50") and drops thousands commas when a dot is also present ("1,234.50").
// Exponent notation and amounts beyond MaxAmount are rejected.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if s == "" || strings.ContainsAny(s, "eE") {
		return Money{}, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") || strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m := Money{value: d}
	if !m.InRange() {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// InRange reports whether |m| <= MaxAmount
func (m Money) InRange() bool {
	return m.value.Abs().LessThanOrEqual(MaxAmount.value)
}

func (m Money) Decimal() decimal.Decimal { return m.value }
func (m Money) IsZero() bool             { return m.value.IsZero() }
func (m Money) IsPositive() bool         { return m.value.IsPositive() }
func (m Money) IsNegative() bool         { return m.value.IsNegative() }
func (m Money) Equal(n Money) bool       { return m.value.Equal(n.value) }
func (m Money) GreaterThan(n Money) bool { return m.value.GreaterThan(n.value) }
func (m Money) LessThan(n Money) bool    { return m.value.LessThan(n.value) }
func (m Money) Add(n Money) Money        { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money        { return Money{value: m.value.Sub(n.value)} }
func (m Money) Neg() Money               { return Money{value: m.value.Neg()} }
func (m Money) Abs() Money               { return Money{value: m.value.Abs()} }

// MulRatio scales the amount, e.g. MulRatio(0.3) for 30% of it
func (m Money) MulRatio(r float64) Money {
	return Money{value: m.value.Mul(decimal.NewFromFloat(r))}
}

// Percent returns m as a percentage of total, 0 when total is zero
func (m Money) Percent(total Money) float64 {
	if total.value.IsZero() {
		return 0
	}
	return m.value.Div(total.value).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// Float64 is for charting and spreadsheet cells only; arithmetic stays in decimal.
func (m Money) Float64() float64 { return m.value.InexactFloat64() }

// Fixed returns the plain two-decimal form, "2500.00"
func (m Money) Fixed() string { return m.value.StringFixed(2) }

// int64 cents bound for go-money formatting
var maxCents = decimal.NewFromInt(math.MaxInt64)

// String formats with currency symbol and thousands separators: "$1,234.50", "-$90.00"
func (m Money) String() string {
	cur := money.GetCurrency(CurrencyCode)
	cents := m.value.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	if cents.Abs().GreaterThan(maxCents) {
		return m.wideString()
	}
	return cur.Formatter().Format(cents.IntPart())
}

// wideString formats amounts whose cents overflow int64
func (m Money) wideString() string {
	fixed := m.value.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if m.value.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// Signed prefixes a plus sign on positive amounts: "+$2,500.00"
func (m Money) Signed() string {
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

// MarshalJSON writes a bare JSON number so the stored array stays `{"amount": 2500}`
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.String()), nil
}

// UnmarshalJSON accepts a number or a numeric string
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	s := string(data)
	if strings.HasPrefix(s, `"`) {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return ErrInvalidAmount
		}
		s = unq
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return ErrInvalidAmount
	}
	m.value = d
	return nil
}
