// Package lineparser implements the configurable regex-based line
// protocol of §4.6: one compiled filter per quantity, each pairing a
// regular expression with per-capture-group numeric/time decoding and a
// linear multiplier/offset transform.
package lineparser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/orca-st/sensact/internal/quantity"
)

// maxGroups is the maximum number of capture groups a Filter's expression
// may use, per §4.6.
const maxGroups = 10

// Format selects how a capture group's text is decoded before the linear
// transform is applied.
type Format string

const (
	// FormatFloat parses a floating-point number, accepting ',' as the
	// decimal separator only when '.' is absent, and stripping thousands
	// separators.
	FormatFloat Format = "f"
	// FormatDateTime parses, when the text contains 'T', RFC 3339 or
	// ISO-8601 basic ("YYYYMMDDTHHMMSS"); otherwise
	// "YYYY-MM-DD HH:MM:SS[.ffffff]". It yields a Unix timestamp.
	FormatDateTime Format = "dt"
)

// Filter is one quantity's regex-driven extraction rule.
type Filter struct {
	Quantity   quantity.Quantity
	Expr       *regexp.Regexp
	Multiplier [maxGroups]float64
	Offset     [maxGroups]float64
	// Format[i] is FormatFloat, FormatDateTime, or a strptime-style layout
	// string for any other value, per §4.6.
	Format [maxGroups]Format
}

// NewFilter compiles expr; the parallel parameter arrays are stored as
// given, without further checks.
func NewFilter(q quantity.Quantity, expr string, multiplier, offset [maxGroups]float64, format [maxGroups]Format) (*Filter, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("lineparser: compiling filter for %s: %w", q.Name(), err)
	}
	return &Filter{Quantity: q, Expr: re, Multiplier: multiplier, Offset: offset, Format: format}, nil
}

// decodeFloat implements format "f": accept ',' as the decimal separator
// only when '.' is absent, and strip thousands separators.
func decodeFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	return strconv.ParseFloat(s, 64)
}

// decodeDateTime implements format "dt": when the string contains 'T' it
// tries RFC 3339 first and then ISO-8601 basic ("20060102T150405"),
// otherwise it parses "YYYY-MM-DD HH:MM:SS[.ffffff]".
func decodeDateTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	var t time.Time
	var err error
	if strings.Contains(s, "T") {
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			t, err = time.Parse("20060102T150405", s)
		}
	} else if strings.Contains(s, ".") {
		t, err = time.Parse("2006-01-02 15:04:05.999999", s)
	} else {
		t, err = time.Parse("2006-01-02 15:04:05", s)
	}
	if err != nil {
		return 0, err
	}
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9, nil
}

// strptimeLayouts maps the common strptime directives this parser
// supports to Go reference-time layouts; unrecognised directives pass
// through as literal text, matching strptime's tolerance of stray
// characters.
var strptimeLayouts = strings.NewReplacer(
	"%Y", "2006", "%m", "01", "%d", "02",
	"%H", "15", "%M", "04", "%S", "05",
	"%y", "06",
)

// decodeStrptime interprets text as local time using a strptime-style
// format string, translated to a Go layout.
func decodeStrptime(format, s string) (float64, error) {
	layout := strptimeLayouts.Replace(format)
	t, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return 0, err
	}
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9, nil
}

func decodeGroup(format Format, s string) (float64, error) {
	switch format {
	case FormatFloat:
		return decodeFloat(s)
	case FormatDateTime:
		return decodeDateTime(s)
	default:
		return decodeStrptime(string(format), s)
	}
}

// Sample is one decoded quantity reading produced by a line scan.
type Sample struct {
	Quantity quantity.Quantity
	Value    float64
	Stamp    float64
}

// Scanner applies a set of filters to an accumulating text buffer,
// greedily consuming matches per §4.6's scan algorithm.
type Scanner struct {
	filters []*Filter
	buf     strings.Builder
	pending string
}

// NewScanner constructs a Scanner over the given filters.
func NewScanner(filters []*Filter) *Scanner {
	return &Scanner{filters: filters}
}

// Feed appends text and runs the scan algorithm, returning every sample
// produced this call. Unmatched trailing bytes are retained for the next
// Feed.
func (s *Scanner) Feed(text string, stamp float64) []Sample {
	s.pending += text
	var out []Sample
	for {
		matched, furthest := s.scanOnce(stamp, &out)
		if !matched {
			break
		}
		s.pending = s.pending[furthest:]
	}
	return out
}

// scanOnce runs every filter once against the current pending buffer,
// appending samples for each match, and reports whether any filter
// matched plus the furthest match end across all filters this iteration.
func (s *Scanner) scanOnce(stamp float64, out *[]Sample) (bool, int) {
	matchedAny := false
	furthest := 0
	for _, f := range s.filters {
		loc := f.Expr.FindStringSubmatchIndex(s.pending)
		if loc == nil {
			continue
		}
		groups := f.Expr.FindStringSubmatch(s.pending)
		sum := 0.0
		any := false
		for i := 1; i < len(groups) && i <= maxGroups; i++ {
			if groups[i] == "" {
				continue
			}
			v, err := decodeGroup(f.Format[i-1], groups[i])
			if err != nil {
				continue
			}
			sum += v*f.Multiplier[i-1] + f.Offset[i-1]
			any = true
		}
		if !any {
			continue
		}
		*out = append(*out, Sample{Quantity: f.Quantity, Value: sum, Stamp: stamp})
		matchedAny = true
		if loc[1] > furthest {
			furthest = loc[1]
		}
	}
	return matchedAny, furthest
}
