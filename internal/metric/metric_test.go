package metric

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"icsgen/internal/ics"
)

func TestObserveAdd(t *testing.T) {
	added := testutil.ToFloat64(EventsAdded)
	missing := testutil.ToFloat64(AddFailures.WithLabelValues("missing_field"))
	invalid := testutil.ToFloat64(AddFailures.WithLabelValues("invalid_time"))
	other := testutil.ToFloat64(AddFailures.WithLabelValues("other"))

	ObserveAdd(nil)
	ObserveAdd(fmt.Errorf("%w: subject", ics.ErrMissingField))
	ObserveAdd(fmt.Errorf("start: %w", ics.ErrInvalidTime))
	ObserveAdd(errors.New("boom"))

	assert.Equal(t, added+1, testutil.ToFloat64(EventsAdded))
	assert.Equal(t, missing+1, testutil.ToFloat64(AddFailures.WithLabelValues("missing_field")))
	assert.Equal(t, invalid+1, testutil.ToFloat64(AddFailures.WithLabelValues("invalid_time")))
	assert.Equal(t, other+1, testutil.ToFloat64(AddFailures.WithLabelValues("other")))
}
