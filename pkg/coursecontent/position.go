package coursecontent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Position is the caller-facing ordering key of a content item. The zero
// value is NoPosition, the unset/invalid sentinel.
type Position struct {
	n   int
	set bool
}

// NoPosition is the unset position.
var NoPosition Position

// MaxPosition is the largest position an item may hold. Positions are
// stored as JSON numbers, which only stay exact up to 2^53-1.
const MaxPosition = 1<<53 - 1

// At returns the position n. Values below 1 are representable so that they
// can be rejected by the allocator.
func At(n int) Position {
	return Position{n: n, set: true}
}

// ParsePosition parses a decimal position; empty or non-numeric input yields
// NoPosition.
func ParsePosition(s string) Position {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoPosition
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > MaxPosition || n < -MaxPosition {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return NoPosition
		}
		return positionFromFloat(f)
	}
	return At(n)
}

// positionFromFloat keeps out-of-range values set but beyond MaxPosition, so
// that validation rejects them instead of allocating a fresh position.
func positionFromFloat(f float64) Position {
	switch {
	case math.IsNaN(f) || f != math.Trunc(f):
		return NoPosition
	case f > MaxPosition:
		return At(MaxPosition + 1)
	case f < -MaxPosition:
		return At(-MaxPosition - 1)
	}
	return At(int(f))
}

// IsSet reports whether p holds a number.
func (p Position) IsSet() bool { return p.set }

// Int returns the numeric value and whether the position is set.
func (p Position) Int() (int, bool) { return p.n, p.set }

// Equal reports whether both positions are set and hold the same number.
func (p Position) Equal(o Position) bool {
	return p.set && o.set && p.n == o.n
}

func (p Position) String() string {
	if !p.set {
		return "unset"
	}
	return strconv.Itoa(p.n)
}

// MarshalJSON encodes an unset position as null.
func (p Position) MarshalJSON() ([]byte, error) {
	if !p.set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(p.n)), nil
}

// UnmarshalJSON accepts null, numbers and numeric strings. Anything else that
// is valid JSON decodes to NoPosition.
func (p *Position) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = NoPosition
		return nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	*p = positionFromValue(v)
	return nil
}

// positionFromValue converts a decoded store value into a Position.
func positionFromValue(v any) Position {
	switch x := v.(type) {
	case nil:
		return NoPosition
	case int:
		return At(x)
	case int32:
		return At(int(x))
	case int64:
		return At(int(x))
	case float64:
		return positionFromFloat(x)
	case json.Number:
		return ParsePosition(x.String())
	case string:
		return ParsePosition(x)
	default:
		return NoPosition
	}
}

// SuggestOrValidatePosition resolves the position for an item about to be
// appended to items.
//
// An unset request resolves to one past the highest set position, or 1 when
// none is set; gaps are never filled. A set request must be at least 1 and
// must not already be used by an item.
func SuggestOrValidatePosition(items []ContentItem, requested Position) (Position, error) {
	if !requested.IsSet() {
		highest := 0
		for _, item := range items {
			if n, ok := item.ItemPosition().Int(); ok && n > highest {
				highest = n
			}
		}
		if highest >= MaxPosition {
			return NoPosition, fmt.Errorf("%w: no position left after %d", ErrInvalidPosition, highest)
		}
		return At(highest + 1), nil
	}

	n, _ := requested.Int()
	if err := checkRange(n); err != nil {
		return NoPosition, err
	}
	for _, item := range items {
		if item.ItemPosition().Equal(requested) {
			return NoPosition, fmt.Errorf("%w: position %d is already used", ErrInvalidPosition, n)
		}
	}
	return requested, nil
}

// ValidateEditPosition resolves the position an edited item moves to.
//
// An unset next keeps the item at previous. Moving onto previous itself is
// always allowed; moving onto a position held by any other item is not.
func ValidateEditPosition(items []ContentItem, previous, next Position) (Position, error) {
	if !next.IsSet() {
		return previous, nil
	}
	if next.Equal(previous) {
		return next, nil
	}

	n, _ := next.Int()
	if err := checkRange(n); err != nil {
		return NoPosition, err
	}
	for _, item := range items {
		pos := item.ItemPosition()
		if pos.Equal(next) && !pos.Equal(previous) {
			return NoPosition, fmt.Errorf("%w: position %d is used by another item", ErrInvalidPosition, n)
		}
	}
	return next, nil
}

func checkRange(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: position %d is below 1", ErrInvalidPosition, n)
	}
	if n > MaxPosition {
		return fmt.Errorf("%w: position %d is above %d", ErrInvalidPosition, n, MaxPosition)
	}
	return nil
}
