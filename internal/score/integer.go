package score

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/victornm/standings/internal/errors"
)

// Integer is a plain number of points.
type Integer int64

func (Integer) Kind() Kind { return KindInteger }

func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }

func (i Integer) payload() string { return fmt.Sprintf("%019d", int64(i)) }

func (i Integer) add(o Integer) (Integer, error) {
	if (o > 0 && i > math.MaxInt64-o) || (o < 0 && i < math.MinInt64-o) {
		return 0, errors.Wrap(errors.ErrOutOfRange, errors.WithMessagef("score: %d + %d overflows", i, o))
	}
	return i + o, nil
}

func decodeInteger(payload string) (Integer, error) {
	v, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %w", err)
	}

	return Integer(v), nil
}

// Percentage is a score expressed in percent with two decimal places.
type Percentage struct {
	d decimal.Decimal
}

// maxPercentage bounds percentages so that their hundredths always fit the fixed-width payload.
var maxPercentage = decimal.New(1, 15)

// NewPercentage rounds d to two decimal places. The result must be non-negative and below 10^15.
func NewPercentage(d decimal.Decimal) (Percentage, error) {
	d = d.Round(2)
	if d.IsNegative() || d.GreaterThanOrEqual(maxPercentage) {
		return Percentage{}, errors.Wrap(errors.ErrOutOfRange,
			errors.WithMessagef("score: percentage %s is outside [0, %s)", d, maxPercentage))
	}

	return Percentage{d: d}, nil
}

// MustPercentage is like NewPercentage but panics on invalid input.
func MustPercentage(d decimal.Decimal) Percentage {
	p, err := NewPercentage(d)
	if err != nil {
		panic(err)
	}
	return p
}

func (Percentage) Kind() Kind { return KindPercentage }

// Decimal returns the percentage value, e.g. 12.5 for 12.5%.
func (p Percentage) Decimal() decimal.Decimal { return p.d }

func (p Percentage) String() string { return p.d.String() + "%" }

func (p Percentage) payload() string { return fmt.Sprintf("%019d", p.d.Shift(2).IntPart()) }

func (p Percentage) add(o Percentage) (Percentage, error) { return NewPercentage(p.d.Add(o.d)) }

func decodePercentage(payload string) (Percentage, error) {
	v, err := parseDigits(payload)
	if err != nil {
		return Percentage{}, fmt.Errorf("invalid percentage: %w", err)
	}

	return NewPercentage(decimal.New(int64(v), -2))
}
