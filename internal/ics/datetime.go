package ics

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// timeLayouts are tried in order. Layouts without a zone are read as
// wall-clock time in the document's location.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102T150405",
	"20060102",
	time.RFC1123Z,
	time.RFC1123,
}

// utcLayouts carry a literal "Z" suffix, which Go does not treat as a zone,
// so they are parsed as UTC explicitly.
var utcLayouts = []string{
	"20060102T150405Z",
}

// timeParser turns start/end strings into points in time.
type timeParser struct {
	loc     *time.Location
	now     func() time.Time
	natural *when.Parser // nil unless natural-language dates are enabled
}

func newTimeParser(loc *time.Location, natural bool, now func() time.Time) *timeParser {
	p := &timeParser{loc: loc, now: now}
	if natural {
		p.natural = when.New(nil)
		p.natural.Add(en.All...)
		p.natural.Add(common.All...)
	}
	return p
}

func (p *timeParser) parse(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTime)
	}

	for _, layout := range utcLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.In(p.loc), nil
		}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, p.loc); err == nil {
			return t.In(p.loc), nil
		}
	}

	if p.natural != nil {
		res, err := p.natural.Parse(v, p.now().In(p.loc))
		if err == nil && res != nil {
			return res.Time.In(p.loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, value)
}

// formatStamp renders t as YYYYMMDD, or YYYYMMDDTHHMMSS when withTime is set.
// The year is always four digits: years past 9999 keep their last four.
func formatStamp(t time.Time, withTime bool) string {
	y, m, d := t.Date()
	year := fmt.Sprintf("%04d", y)
	out := year[len(year)-4:] + fmt.Sprintf("%02d%02d", int(m), d)
	if withTime {
		h, mi, s := t.Clock()
		out += fmt.Sprintf("T%02d%02d%02d", h, mi, s)
	}
	return out
}
