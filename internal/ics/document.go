package ics

import (
	"fmt"
	"strings"
	"time"

	"icsgen/internal/model"
)

// LineEnding is the separator placed between every line of a document.
type LineEnding string

const (
	CRLF LineEnding = "\r\n"
	LF   LineEnding = "\n"
)

const (
	DefaultUIDDomain = "default"
	DefaultProductID = "Calendar"
	DefaultFilename  = "calendar"
	DefaultExtension = ".ics"

	// MIMEType is passed to exporters along with the rendered document.
	MIMEType = "text/calendar; charset=utf-8"
)

// PlatformLineEnding returns the conventional line ending for a GOOS value:
// CRLF on windows, LF everywhere else.
func PlatformLineEnding(goos string) LineEnding {
	if goos == "windows" {
		return CRLF
	}
	return LF
}

// ParseLineEnding maps "crlf" / "lf" (case-insensitive) to a LineEnding.
func ParseLineEnding(s string) (LineEnding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crlf":
		return CRLF, nil
	case "lf":
		return LF, nil
	default:
		return "", fmt.Errorf("unknown line ending %q", s)
	}
}

// Exporter persists a rendered document, e.g. by writing a file or sending
// it as an HTTP download.
type Exporter interface {
	Export(content, mimeType, filename string) error
}

// Options configures a Document. The zero value is usable.
type Options struct {
	// UIDDomain scopes generated UIDs ("<index>@<UIDDomain>").
	// Empty means DefaultUIDDomain.
	UIDDomain string
	// ProductID is written as PRODID. Empty means DefaultProductID.
	ProductID string
	// LineEnding separates every line of the output. Empty means LF.
	LineEnding LineEnding

	// Location is used to read wall-clock date/time components from
	// start/end. Nil means time.Local.
	Location *time.Location

	// EscapeText escapes '\', ';', ',' and line breaks in subject,
	// description and location. When false, values are inserted verbatim.
	EscapeText bool

	// NaturalDates accepts phrases like "tomorrow at 9am" for start/end
	// when none of the fixed layouts match.
	NaturalDates bool
	// Now is the reference time for natural dates. Nil means time.Now.
	Now func() time.Time
}

// Document accumulates serialized VEVENT blocks and renders them into a
// VCALENDAR document.
//
// Events are append-only: the block for the Nth added event always carries
// UID "N@<domain>". A Document is not safe for concurrent use; callers that
// share one across goroutines must serialize access themselves.
type Document struct {
	uidDomain string
	productID string
	sep       string
	escape    bool
	times     *timeParser

	events []string
}

// New creates an empty Document. Empty option values fall back to defaults;
// New never fails.
func New(opts Options) *Document {
	if opts.UIDDomain == "" {
		opts.UIDDomain = DefaultUIDDomain
	}
	if opts.ProductID == "" {
		opts.ProductID = DefaultProductID
	}
	if opts.LineEnding == "" {
		opts.LineEnding = LF
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Document{
		uidDomain: opts.UIDDomain,
		productID: opts.ProductID,
		sep:       string(opts.LineEnding),
		escape:    opts.EscapeText,
		times:     newTimeParser(opts.Location, opts.NaturalDates, opts.Now),
	}
}

// AddEvent parses req, serializes it into a VEVENT block, appends the block
// and returns it.
//
// All five fields must be present (non-nil); empty strings are accepted.
// On error the document is left unchanged.
func (d *Document) AddEvent(req model.EventRequest) (string, error) {
	if err := checkRequired(req); err != nil {
		return "", err
	}

	start, err := d.times.parse(*req.Start)
	if err != nil {
		return "", fmt.Errorf("start: %w", err)
	}
	end, err := d.times.parse(*req.End)
	if err != nil {
		return "", fmt.Errorf("end: %w", err)
	}

	return d.add(*req.Subject, *req.Description, *req.Location, start, end), nil
}

// Add is AddEvent with every field present.
func (d *Document) Add(subject, description, location, start, end string) (string, error) {
	return d.AddEvent(model.NewEventRequest(subject, description, location, start, end))
}

// AddEventAt adds an event whose start and end are already known. Their
// wall-clock components are taken in the document's location.
func (d *Document) AddEventAt(subject, description, location string, start, end time.Time) string {
	return d.add(subject, description, location, start.In(d.times.loc), end.In(d.times.loc))
}

func (d *Document) add(subject, description, location string, start, end time.Time) string {
	ev := model.Event{
		UID:         fmt.Sprintf("%d@%s", len(d.events), d.uidDomain),
		Summary:     subject,
		Description: description,
		Location:    location,
		AllDay:      end.Sub(start) == 0,
		Start:       start,
		End:         end,
	}

	block := d.serializeEvent(ev)
	d.events = append(d.events, block)
	return block
}

func (d *Document) serializeEvent(ev model.Event) string {
	text := func(s string) string {
		if d.escape {
			return escapeText(s)
		}
		return s
	}

	return strings.Join([]string{
		"BEGIN:VEVENT",
		"UID:" + ev.UID,
		"CLASS:PUBLIC",
		"DESCRIPTION:" + text(ev.Description),
		"DTSTART;VALUE=DATE-TIME:" + formatStamp(ev.Start, !ev.AllDay),
		"DTEND;VALUE=DATE-TIME:" + formatStamp(ev.End, !ev.AllDay),
		"LOCATION:" + text(ev.Location),
		"SUMMARY;LANGUAGE=en-us:" + text(ev.Summary),
		"TRANSP:TRANSPARENT",
		"END:VEVENT",
	}, d.sep)
}

func checkRequired(req model.EventRequest) error {
	var missing []string
	if req.Subject == nil {
		missing = append(missing, "subject")
	}
	if req.Description == nil {
		missing = append(missing, "description")
	}
	if req.Location == nil {
		missing = append(missing, "location")
	}
	if req.Start == nil {
		missing = append(missing, "start")
	}
	if req.End == nil {
		missing = append(missing, "end")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// Events returns a copy of the serialized VEVENT blocks in insertion order.
func (d *Document) Events() []string {
	out := make([]string, len(d.events))
	copy(out, d.events)
	return out
}

// Len reports how many events have been added.
func (d *Document) Len() int {
	return len(d.events)
}

// Calendar renders the document. Unlike Build it does not refuse an empty
// document: the result is then the header and footer only.
func (d *Document) Calendar() string {
	header := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"PRODID:" + d.productID,
		"VERSION:2.0",
	}, d.sep)

	return header + d.sep + strings.Join(d.events, d.sep) + d.sep + "END:VCALENDAR"
}

// Build renders the document, or returns ErrNoEvents if nothing was added.
func (d *Document) Build() (string, error) {
	if len(d.events) == 0 {
		return "", ErrNoEvents
	}
	return d.Calendar(), nil
}

// Download renders the document and hands it to exp as filename+ext.
// Empty filename and ext default to DefaultFilename and DefaultExtension.
// It returns ErrNoEvents without calling exp when the document is empty.
func (d *Document) Download(exp Exporter, filename, ext string) (string, error) {
	if len(d.events) == 0 {
		return "", ErrNoEvents
	}
	if filename == "" {
		filename = DefaultFilename
	}
	if ext == "" {
		ext = DefaultExtension
	}

	cal := d.Calendar()
	if err := exp.Export(cal, MIMEType, filename+ext); err != nil {
		return "", fmt.Errorf("%w: %w", ErrExport, err)
	}
	return cal, nil
}
