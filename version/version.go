// Package version implements the ordering used for artifact versions published
// to Maven-layout repositories.
//
// Version format: dot and hyphen separated items. A transition between a
// letter and a digit also starts a new item. Examples:
//
//	1.0 == 1 == 1.0.0 == 1-ga
//	1.0-alpha-1 < 1.0-beta < 1.0-rc1 < 1.0-SNAPSHOT < 1.0-foo < 1.0 < 1.0-sp
//	1.2-rc1.aaaaaaaaaaaa > 1.1
//
// Parsing never fails: any string maps to some position in the order.
package version

import (
	"strings"
)

// Qualifier ranks. Unrecognized qualifiers sort after every recognized
// pre-release qualifier and before a release.
const (
	rankAlpha = iota
	rankBeta
	rankMilestone
	rankRC
	rankSnapshot
	rankUnknown
	rankRelease
	rankSP
)

var qualifierRanks = map[string]int{
	"alpha":     rankAlpha,
	"beta":      rankBeta,
	"milestone": rankMilestone,
	"rc":        rankRC,
	"snapshot":  rankSnapshot,
	"":          rankRelease,
	"sp":        rankSP,
}

var qualifierAliases = map[string]string{
	"ga":      "",
	"final":   "",
	"release": "",
	"cr":      "rc",
}

// PrereleaseQualifiers lists the qualifier tokens that mark a version as a
// pre-release, including the aliases and the nonstandard tokens some update
// tools recognize.
var PrereleaseQualifiers = []string{"alpha", "beta", "milestone", "rc", "snapshot", "cr", "pr", "dev"}

type item interface {
	// compareTo compares the receiver with other, which may be nil.
	compareTo(other item) int
	isNull() bool
	String() string
}

// intItem holds a non-negative integer as its decimal digits without leading zeros.
type intItem string

func newIntItem(digits string) intItem {
	digits = strings.TrimLeft(digits, "0")
	return intItem(digits)
}

func (i intItem) isNull() bool { return i == "" }

func (i intItem) String() string {
	if i == "" {
		return "0"
	}
	return string(i)
}

func (i intItem) compareTo(other item) int {
	switch o := other.(type) {
	case nil:
		if i.isNull() {
			return 0
		}
		return 1
	case intItem:
		if len(i) != len(o) {
			if len(i) < len(o) {
				return -1
			}
			return 1
		}
		return strings.Compare(string(i), string(o))
	case stringItem:
		return 1 // 1.1 > 1-sp
	case *listItem:
		return 1 // 1.1 > 1-1
	default:
		return 0
	}
}

type stringItem string

func newStringItem(value string, followedByDigit bool) stringItem {
	if followedByDigit && len(value) == 1 {
		switch value {
		case "a":
			value = "alpha"
		case "b":
			value = "beta"
		case "m":
			value = "milestone"
		}
	}
	if alias, ok := qualifierAliases[value]; ok {
		value = alias
	}
	return stringItem(value)
}

func (s stringItem) rank() int {
	if r, ok := qualifierRanks[string(s)]; ok {
		return r
	}
	return rankUnknown
}

func (s stringItem) isNull() bool { return s.rank() == rankRelease }

func (s stringItem) String() string { return string(s) }

func (s stringItem) compareQualifier(o stringItem) int {
	sr, or := s.rank(), o.rank()
	if sr != or {
		if sr < or {
			return -1
		}
		return 1
	}
	if sr == rankUnknown {
		return strings.Compare(string(s), string(o))
	}
	return 0
}

func (s stringItem) compareTo(other item) int {
	switch o := other.(type) {
	case nil:
		// 1-rc < 1, 1-ga > 1
		return s.compareQualifier("")
	case intItem:
		return -1
	case stringItem:
		return s.compareQualifier(o)
	case *listItem:
		return -1
	default:
		return 0
	}
}

type listItem struct {
	items []item
}

func (l *listItem) add(i item) {
	l.items = append(l.items, i)
}

func (l *listItem) isNull() bool { return len(l.items) == 0 }

// normalize drops trailing null items: 1.0.0 -> 1, 1-ga -> 1.
func (l *listItem) normalize() {
	for i := len(l.items) - 1; i >= 0; i-- {
		last := l.items[i]
		if last.isNull() {
			l.items = append(l.items[:i], l.items[i+1:]...)
			continue
		}
		if _, ok := last.(*listItem); !ok {
			break
		}
	}
}

func (l *listItem) String() string {
	var b strings.Builder
	for _, it := range l.items {
		if b.Len() > 0 {
			if _, ok := it.(*listItem); ok {
				b.WriteByte('-')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteString(it.String())
	}
	return b.String()
}

func (l *listItem) compareTo(other item) int {
	switch o := other.(type) {
	case nil:
		if len(l.items) == 0 {
			return 0
		}
		return l.items[0].compareTo(nil)
	case intItem:
		return -1 // 1-1 < 1.0.x
	case stringItem:
		return 1 // 1-1 > 1-sp
	case *listItem:
		n := len(l.items)
		if len(o.items) > n {
			n = len(o.items)
		}
		for i := 0; i < n; i++ {
			var left, right item
			if i < len(l.items) {
				left = l.items[i]
			}
			if i < len(o.items) {
				right = o.items[i]
			}

			var result int
			switch {
			case left == nil && right == nil:
				result = 0
			case left == nil:
				result = -right.compareTo(nil)
			default:
				result = left.compareTo(right)
			}
			if result != 0 {
				return result
			}
		}
		return 0
	default:
		return 0
	}
}

// Version is a parsed, comparable version string.
type Version struct {
	raw   string
	items *listItem
}

// Parse parses a version string. Parsing is case-insensitive and total.
func Parse(s string) Version {
	v := Version{raw: s, items: &listItem{}}

	lower := strings.ToLower(s)
	list := v.items
	stack := []*listItem{list}

	push := func() {
		next := &listItem{}
		list.add(next)
		list = next
		stack = append(stack, next)
	}
	parseItem := func(isDigit bool, buf string) item {
		if isDigit {
			return newIntItem(buf)
		}
		return newStringItem(buf, false)
	}

	isDigit := false
	start := 0
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		switch {
		case c == '.':
			if i == start {
				list.add(intItem(""))
			} else {
				list.add(parseItem(isDigit, lower[start:i]))
			}
			start = i + 1
		case c == '-':
			if i == start {
				list.add(intItem(""))
			} else {
				list.add(parseItem(isDigit, lower[start:i]))
			}
			start = i + 1
			push()
		case c >= '0' && c <= '9':
			if !isDigit && i > start {
				list.add(newStringItem(lower[start:i], true))
				start = i
				push()
			}
			isDigit = true
		default:
			if isDigit && i > start {
				list.add(parseItem(true, lower[start:i]))
				start = i
				push()
			}
			isDigit = false
		}
	}

	if len(lower) > start {
		// 1.0.0.X1 < 1.0.0-X2: a trailing .X is treated as -X
		if !isDigit && len(list.items) > 0 {
			push()
		}
		list.add(parseItem(isDigit, lower[start:]))
	}

	for i := len(stack) - 1; i >= 0; i-- {
		stack[i].normalize()
	}

	return v
}

// String returns the version as it was given to Parse.
func (v Version) String() string {
	return v.raw
}

// Canonical returns the normalized form used for comparison, with aliases
// expanded (a1 -> alpha-1) and null items removed.
func (v Version) Canonical() string {
	if v.items == nil {
		return ""
	}
	return v.items.String()
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to
// or after o.
func (v Version) Compare(o Version) int {
	left, right := v.items, o.items
	if left == nil {
		left = &listItem{}
	}
	if right == nil {
		right = &listItem{}
	}
	return left.compareTo(right)
}

// Less reports whether v sorts strictly before o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// Equal reports whether v and o occupy the same position in the order.
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// Compare parses and compares two version strings.
func Compare(a, b string) int {
	return Parse(a).Compare(Parse(b))
}
