// Package source reads event definitions from a YAML file and feeds them
// into a calendar document.
//
// File format:
//
//	events:
//	  - subject: Meeting
//	    description: Standup
//	    location: Room A
//	    start: 2024-03-01T09:00:00
//	    end: 2024-03-01T09:30:00
//
// A key that is left out is reported as a missing field; an explicit empty
// string ("") is accepted.
package source

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"icsgen/internal/ics"
	appLog "icsgen/internal/log"
	"icsgen/internal/metric"
	"icsgen/internal/model"
)

type file struct {
	Events []model.EventRequest `yaml:"events"`
}

// Load reads the event list from a YAML file at path.
func Load(path string) ([]model.EventRequest, error) {
	if path == "" {
		return nil, errors.New("events file path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes the YAML events document in data.
func Parse(data []byte) ([]model.EventRequest, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse events: %w", err)
	}
	return f.Events, nil
}

// Apply adds reqs to doc in order. A rejected event is logged and its error
// collected; it does not stop the remaining events from being added.
func Apply(doc *ics.Document, reqs []model.EventRequest) (int, []error) {
	added := 0
	var errs []error

	for i, req := range reqs {
		_, err := doc.AddEvent(req)
		metric.ObserveAdd(err)
		if err != nil {
			err = fmt.Errorf("event %d: %w", i, err)
			appLog.Error("event skipped", err, "index", i)
			errs = append(errs, err)
			continue
		}
		added++
	}

	appLog.Debug("events applied", "added", added, "skipped", len(errs))
	return added, errs
}

// LoadDocument builds a fresh document from opts and the events file at path.
// The returned error is non-nil only when the file itself cannot be read;
// per-event failures are returned separately.
func LoadDocument(path string, opts ics.Options) (*ics.Document, []error, error) {
	reqs, err := Load(path)
	if err != nil {
		return nil, nil, err
	}

	doc := ics.New(opts)
	_, errs := Apply(doc, reqs)
	return doc, errs, nil
}
