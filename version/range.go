package version

import (
	"fmt"
	"regexp"
	"strings"
)

// Restriction is one interval of a Range. A nil bound is unbounded.
type Restriction struct {
	Lower          *Version
	LowerInclusive bool
	Upper          *Version
	UpperInclusive bool
}

// Contains reports whether v lies inside the restriction.
func (r Restriction) Contains(v Version) bool {
	if r.Lower != nil {
		c := r.Lower.Compare(v)
		if c > 0 || (c == 0 && !r.LowerInclusive) {
			return false
		}
	}
	if r.Upper != nil {
		c := r.Upper.Compare(v)
		if c < 0 || (c == 0 && !r.UpperInclusive) {
			return false
		}
	}
	return true
}

func (r Restriction) String() string {
	var b strings.Builder
	if r.LowerInclusive {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	if r.Lower != nil {
		b.WriteString(r.Lower.String())
	}
	if r.Lower != nil && r.Upper != nil && r.LowerInclusive && r.UpperInclusive && r.Lower.Equal(*r.Upper) {
		b.WriteByte(']')
		return b.String()
	}
	b.WriteByte(',')
	if r.Upper != nil {
		b.WriteString(r.Upper.String())
	}
	if r.UpperInclusive {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String()
}

// Range is a set of allowed versions.
//
// A bare version such as "2.0.4" is a minimum: it allows 2.0.4 and anything
// newer. Bracketed specs follow the usual interval notation:
//
//	[2.0,2.1)         2.0 <= v < 2.1
//	[2.0,2.1]         2.0 <= v <= 2.1
//	[2.0.5,)          v >= 2.0.5
//	(,2.0.5],[2.1.1,) v <= 2.0.5 or v >= 2.1.1
type Range struct {
	Minimum      *Version
	Restrictions []Restriction
}

// ParseRange parses a range specification.
func ParseRange(spec string) (*Range, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("version range cannot be empty")
	}

	if !strings.HasPrefix(spec, "[") && !strings.HasPrefix(spec, "(") {
		if strings.ContainsAny(spec, "[](),") {
			return nil, fmt.Errorf("invalid version range %q", spec)
		}
		v := Parse(spec)
		return &Range{Minimum: &v}, nil
	}

	r := &Range{}
	process := spec
	for strings.HasPrefix(process, "[") || strings.HasPrefix(process, "(") {
		end := strings.IndexAny(process, "])")
		if end < 0 {
			return nil, fmt.Errorf("unbounded range %q", spec)
		}

		restriction, err := parseRestriction(process[:end+1])
		if err != nil {
			return nil, fmt.Errorf("invalid version range %q: %w", spec, err)
		}

		if n := len(r.Restrictions); n > 0 {
			prev := r.Restrictions[n-1]
			if prev.Upper == nil || restriction.Lower == nil || prev.Upper.Compare(*restriction.Lower) > 0 {
				return nil, fmt.Errorf("ranges overlap in %q", spec)
			}
		}
		r.Restrictions = append(r.Restrictions, restriction)

		process = strings.TrimSpace(process[end+1:])
		process = strings.TrimPrefix(process, ",")
		process = strings.TrimSpace(process)
	}

	if process != "" {
		return nil, fmt.Errorf("only fully-qualified sets allowed in multiple set scenario: %q", spec)
	}

	return r, nil
}

func parseRestriction(spec string) (Restriction, error) {
	r := Restriction{
		LowerInclusive: strings.HasPrefix(spec, "["),
		UpperInclusive: strings.HasSuffix(spec, "]"),
	}
	inner := strings.TrimSpace(spec[1 : len(spec)-1])

	comma := strings.Index(inner, ",")
	if comma < 0 {
		if !r.LowerInclusive || !r.UpperInclusive {
			return Restriction{}, fmt.Errorf("single version must be surrounded by []: %s", spec)
		}
		if inner == "" {
			return Restriction{}, fmt.Errorf("empty version in %s", spec)
		}
		v := Parse(inner)
		r.Lower, r.Upper = &v, &v
		return r, nil
	}

	lower := strings.TrimSpace(inner[:comma])
	upper := strings.TrimSpace(inner[comma+1:])
	if strings.Contains(upper, ",") {
		return Restriction{}, fmt.Errorf("too many bounds in %s", spec)
	}

	if lower != "" {
		v := Parse(lower)
		r.Lower = &v
	}
	if upper != "" {
		v := Parse(upper)
		r.Upper = &v
	}

	if r.Lower != nil && r.Upper != nil {
		c := r.Lower.Compare(*r.Upper)
		if c > 0 {
			return Restriction{}, fmt.Errorf("range defies version ordering: %s", spec)
		}
		if c == 0 && (!r.LowerInclusive || !r.UpperInclusive) {
			return Restriction{}, fmt.Errorf("range is empty: %s", spec)
		}
	}

	return r, nil
}

// Contains reports whether v is allowed by the range.
func (r *Range) Contains(v Version) bool {
	if r.Minimum != nil {
		return r.Minimum.Compare(v) <= 0
	}
	for _, restriction := range r.Restrictions {
		if restriction.Contains(v) {
			return true
		}
	}
	return false
}

// String renders the range. A minimum is shown as a half-open interval.
func (r *Range) String() string {
	if r.Minimum != nil {
		return "[" + r.Minimum.String() + ",)"
	}
	parts := make([]string, len(r.Restrictions))
	for i, restriction := range r.Restrictions {
		parts[i] = restriction.String()
	}
	return strings.Join(parts, ",")
}

var (
	incrementalPattern = regexp.MustCompile(`^.+-rc[0-9]+\.([0-9a-f_]+)$`)
	timestampPattern   = regexp.MustCompile(`^.*-[0-9]{8}\.[0-9]{6}-[0-9]+$`)
)

// IsIncremental reports whether v looks like a version produced by a
// commit-triggered build, such as 1.23-rc1234.abc123def456 or its sanitized
// form 1.23-rc1234.a_b_c123def456.
func IsIncremental(v string) bool {
	m := incrementalPattern.FindStringSubmatch(v)
	if m == nil {
		return false
	}
	return len(strings.ReplaceAll(m[1], "_", "")) == 12
}

// IsSnapshot reports whether v is a snapshot version, either symbolic
// (1.0-SNAPSHOT) or timestamped (1.0-20180101.120000-3).
func IsSnapshot(v string) bool {
	return strings.HasSuffix(strings.ToUpper(v), "SNAPSHOT") || timestampPattern.MatchString(v)
}
