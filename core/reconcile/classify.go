// Package reconcile matches raw identifiers against a code catalog while
// keeping the caller's order.
package reconcile

import (
	"fmt"
	"strings"
)

// SerialPrefix is prepended to numeric identifiers to form catalog serials.
const SerialPrefix = "26."

type Class int

const (
	ClassEmpty Class = iota
	ClassNumeric
	ClassOpaque
)

func (c Class) String() string {
	switch c {
	case ClassEmpty:
		return "empty"
	case ClassNumeric:
		return "numeric"
	case ClassOpaque:
		return "opaque"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Item is one classified input identifier.
type Item struct {
	OriginalIndex int
	RawValue      *string
	Class         Class
	LookupKey     string
}

// Classify derives the class and lookup key of raw. A nil raw is empty.
func Classify(index int, raw *string) Item {
	item := Item{OriginalIndex: index, RawValue: raw, Class: ClassEmpty}
	if raw == nil {
		return item
	}

	trimmed := strings.TrimSpace(*raw)
	switch {
	case trimmed == "":
	case isDigits(trimmed):
		item.Class = ClassNumeric
		item.LookupKey = SerialPrefix + trimmed
	default:
		item.Class = ClassOpaque
		item.LookupKey = trimmed
	}
	return item
}

// ClassifyAll classifies values in order; index i gets OriginalIndex i.
func ClassifyAll(raws []*string) []Item {
	items := make([]Item, len(raws))
	for i, raw := range raws {
		items[i] = Classify(i, raw)
	}
	return items
}

// isDigits reports whether s consists only of ASCII decimal digits.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
