package fracindex

import (
	"errors"
	"fmt"
	"strings"
)

// digits is the key alphabet in ordinal order. Byte comparison of keys and
// ordinal comparison of digits agree because the alphabet is ASCII-ascending.
const digits = "0123456789abcdefghijklmnopqrstuvwxyz"

const (
	minDigit = '0'
	maxDigit = 'z'
	// midDigit splits the alphabet when a fresh character position is opened.
	midDigit = 'i'
)

// StartKey is the key assigned when a collection receives its first item.
const StartKey = "a0"

var (
	// ErrInvalidRange indicates the supplied neighbor keys are not in
	// strictly increasing order. This is caller misuse (stale or corrupted
	// neighbor data), not a recoverable condition.
	ErrInvalidRange = errors.New("order keys not in strictly increasing order")

	// ErrMalformedKey indicates an input key that is not a legal order key.
	// It signals upstream data corruption and is surfaced immediately
	// rather than coerced.
	ErrMalformedKey = errors.New("malformed order key")
)

// Validate reports whether key is a legal order key: non-empty, drawn from
// the alphabet '0'-'9','a'-'z', and not the reserved all-zero form.
func Validate(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is empty", ErrMalformedKey)
	}
	zero := true
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') {
			return fmt.Errorf("%w: %q has character %q at position %d", ErrMalformedKey, key, rune(c), i)
		}
		if c != minDigit {
			zero = false
		}
	}
	if zero {
		// Nothing sorts before an all-zero key, so one in the data would
		// permanently block insertion at the head of its collection.
		return fmt.Errorf("%w: %q is reserved as the zero boundary", ErrMalformedKey, key)
	}
	return nil
}

// Compare orders two keys lexicographically, returning -1, 0, or 1. It is a
// total order over the key space and is the comparison every collection
// must use when sorting by order key.
func Compare(a, b string) int {
	return strings.Compare(a, b)
}

// KeyBetween returns a new key strictly between after and before. Either
// neighbor may be empty, meaning there is no item on that side. With both
// neighbors empty the fixed StartKey is returned. With both present, after
// must sort strictly before before or ErrInvalidRange is returned.
//
// The function is pure: no side effects, deterministic for given inputs.
func KeyBetween(after, before string) (string, error) {
	if after != "" {
		if err := Validate(after); err != nil {
			return "", fmt.Errorf("after key: %w", err)
		}
	}
	if before != "" {
		if err := Validate(before); err != nil {
			return "", fmt.Errorf("before key: %w", err)
		}
	}
	switch {
	case after == "" && before == "":
		return StartKey, nil
	case before == "":
		return keyAfter(after), nil
	case after == "":
		return keyBefore(before), nil
	}
	if Compare(after, before) >= 0 {
		return "", fmt.Errorf("%w: after %q, before %q", ErrInvalidRange, after, before)
	}
	return keyBetween(after, before)
}

// KeysBetween returns count strictly increasing keys, all strictly between
// after and before, by chaining KeyBetween with each new key becoming the
// after of the next. It is equivalent to count sequential insertions at the
// same point and is the right call for bulk inserts at one position.
func KeysBetween(count int, after, before string) ([]string, error) {
	if count < 0 {
		return nil, fmt.Errorf("key count must be non-negative, got %d", count)
	}
	keys := make([]string, 0, count)
	prev := after
	for i := 0; i < count; i++ {
		key, err := KeyBetween(prev, before)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		prev = key
	}
	return keys, nil
}

// ord maps an alphabet byte to its ordinal position.
func ord(c byte) int {
	if c <= '9' {
		return int(c - '0')
	}
	return int(c-'a') + 10
}

// keyAfter returns a key strictly greater than a, with no upper bound.
// It steps the leading character up one ordinal; at the top of the
// alphabet it grows the key instead.
func keyAfter(a string) string {
	if a[0] != maxDigit {
		return string(digits[ord(a[0])+1]) + a[1:]
	}
	return a + string(midDigit)
}

// keyBefore returns a key strictly less than b. It steps the leading
// character down one ordinal; at the bottom of the alphabet, or when the
// stepped key would collapse into the reserved zero boundary, it prefixes
// the boundary digit instead. The prefix form is always smaller because
// every valid key contains at least one non-zero character.
func keyBefore(b string) string {
	if b[0] != minDigit {
		dec := string(digits[ord(b[0])-1]) + b[1:]
		if !allZero(dec) {
			return dec
		}
	}
	return string(minDigit) + b
}

// keyBetween returns a key strictly between a and b. Preconditions: both
// keys are valid and a < b, which also rules out b being a prefix of a.
func keyBetween(a, b string) (string, error) {
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	if i == len(a) {
		// a is a strict prefix of b; the midpoint extends a with a key
		// below b's remainder.
		rem := b[i:]
		if allZero(rem) {
			// b extends a with zeros only. For a single zero there is no
			// room at all; for longer runs the only keys in range are the
			// shorter zero runs.
			if len(rem) == 1 {
				return "", fmt.Errorf("%w: no key exists between %q and %q", ErrInvalidRange, a, b)
			}
			return a + rem[:len(rem)-1], nil
		}
		return a + keyBefore(rem), nil
	}
	ca, cb := ord(a[i]), ord(b[i])
	if cb-ca >= 2 {
		return a[:i] + string(digits[(ca+cb)/2]), nil
	}
	// Adjacent characters leave no direct midpoint: keep a's character and
	// borrow precision from the suffix.
	suffix := a[i+1:]
	if suffix == "" {
		return a[:i+1] + string(midDigit), nil
	}
	return a[:i+1] + keyAfter(suffix), nil
}

func allZero(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != minDigit {
			return false
		}
	}
	return true
}
