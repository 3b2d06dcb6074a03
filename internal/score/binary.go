package score

import "fmt"

// Binary is a pass/fail score. A sum of binary scores is accepted only when every addend is accepted.
type Binary struct {
	accepted bool
}

func NewBinary(accepted bool) Binary { return Binary{accepted: accepted} }

var (
	Accepted = NewBinary(true)
	Rejected = NewBinary(false)
)

func (Binary) Kind() Kind { return KindBinary }

func (b Binary) Accepted() bool { return b.accepted }

func (b Binary) String() string {
	if b.accepted {
		return "Accepted"
	}
	return "Rejected"
}

// The leading digit keeps "accepted" above "rejected" in text order.
func (b Binary) payload() string {
	if b.accepted {
		return "1:accepted"
	}
	return "0:rejected"
}

func (b Binary) add(o Binary) Binary { return Binary{accepted: b.accepted && o.accepted} }

func (b Binary) compare(o Binary) int {
	switch {
	case b.accepted == o.accepted:
		return 0
	case b.accepted:
		return 1
	default:
		return -1
	}
}

func decodeBinary(payload string) (Binary, error) {
	switch payload {
	case "1:accepted", "accepted":
		return Accepted, nil
	case "0:rejected", "rejected":
		return Rejected, nil
	}

	return Binary{}, fmt.Errorf("invalid binary score %q", payload)
}
