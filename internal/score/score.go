// Package score implements the score values attached to submissions, problems and whole contests.
//
// A Value is one of a closed set of variants (Integer, Percentage, Binary, ACM). Values of the same variant can be
// added and compared. A nil Value means "no score" and sorts below every concrete value. Every value has a canonical
// text form, produced by Encode, that round-trips through Decode and sorts lexicographically in the same order as
// Compare for non-negative values, so a text column can be ordered by the database.
package score

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/victornm/standings/internal/errors"
)

// Kind is the tag written in front of the encoded payload.
type Kind string

const (
	KindInteger    Kind = "int"
	KindPercentage Kind = "percent"
	KindBinary     Kind = "bool"
	KindACM        Kind = "ACM"
)

// Value is a score. The set of implementations is closed to this package.
type Value interface {
	Kind() Kind
	String() string

	payload() string
}

// Add returns the sum of two scores of the same kind. A nil operand is the identity.
func Add(a, b Value) (Value, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}
	if a.Kind() != b.Kind() {
		return nil, mismatch("add", a, b)
	}

	switch x := a.(type) {
	case Integer:
		return x.add(b.(Integer))
	case Percentage:
		return x.add(b.(Percentage))
	case Binary:
		return x.add(b.(Binary)), nil
	case ACM:
		return x.add(b.(ACM))
	}

	return nil, fmt.Errorf("score: add: unsupported kind %q", a.Kind())
}

// Compare returns -1, 0 or 1. A nil score is lower than any concrete score.
func Compare(a, b Value) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	case a.Kind() != b.Kind():
		return 0, mismatch("compare", a, b)
	}

	switch x := a.(type) {
	case Integer:
		return cmp.Compare(x, b.(Integer)), nil
	case Percentage:
		return x.d.Cmp(b.(Percentage).d), nil
	case Binary:
		return x.compare(b.(Binary)), nil
	case ACM:
		return x.compare(b.(ACM)), nil
	}

	return 0, fmt.Errorf("score: compare: unsupported kind %q", a.Kind())
}

// Equal reports whether a and b are the same score, field by field.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	return a.payload() == b.payload()
}

// Sum adds up all values, skipping nil ones. It returns nil when every value is nil.
func Sum(values ...Value) (Value, error) {
	var total Value
	for _, v := range values {
		var err error
		if total, err = Add(total, v); err != nil {
			return nil, err
		}
	}

	return total, nil
}

// Encode returns the canonical text form "<kind>:<payload>". A nil score encodes to the empty string.
func Encode(v Value) string {
	if v == nil {
		return ""
	}

	return string(v.Kind()) + ":" + v.payload()
}

// Decode parses a string produced by Encode, including legacy payload layouts. The empty string decodes to nil.
func Decode(s string) (Value, error) {
	if s == "" {
		return nil, nil
	}

	tag, payload, ok := strings.Cut(s, ":")
	if !ok {
		return nil, decodeError(s, "score must look like <type>:<value>, for example int:100")
	}

	var (
		v   Value
		err error
	)
	switch Kind(tag) {
	case KindInteger:
		v, err = decodeInteger(payload)
	case KindPercentage:
		v, err = decodePercentage(payload)
	case KindBinary:
		v, err = decodeBinary(payload)
	case KindACM:
		v, err = decodeACM(payload)
	default:
		return nil, decodeError(s, fmt.Sprintf("unrecognized score type %q", tag))
	}
	if err != nil {
		return nil, decodeError(s, err.Error())
	}

	return v, nil
}

func decodeError(s, reason string) error {
	return errors.Wrap(errors.ErrDecode, errors.WithMessagef("score: decode %q: %s", s, reason))
}

func mismatch(op string, a, b Value) error {
	return errors.Wrap(errors.ErrTypeMismatch, errors.WithMessagef("score: %s %s and %s", op, a.Kind(), b.Kind()))
}
