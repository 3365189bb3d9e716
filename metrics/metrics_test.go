package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordListing(t *testing.T) {
	newBefore := testutil.ToFloat64(ListingsTotal.WithLabelValues("new"))
	updBefore := testutil.ToFloat64(ListingsTotal.WithLabelValues("updated"))

	RecordListing(true)
	RecordListing(false)
	RecordListing(false)

	assert.Equal(t, newBefore+1, testutil.ToFloat64(ListingsTotal.WithLabelValues("new")))
	assert.Equal(t, updBefore+2, testutil.ToFloat64(ListingsTotal.WithLabelValues("updated")))
}

func TestRecordFetch(t *testing.T) {
	before := testutil.ToFloat64(FetchAttemptsTotal.WithLabelValues(OutcomeSoftBlocked))
	RecordFetch(OutcomeSoftBlocked)
	assert.Equal(t, before+1, testutil.ToFloat64(FetchAttemptsTotal.WithLabelValues(OutcomeSoftBlocked)))
}

func TestRecordCycle(t *testing.T) {
	before := testutil.ToFloat64(CyclesTotal.WithLabelValues("ok"))
	RecordCycle("ok", 12.5)
	assert.Equal(t, before+1, testutil.ToFloat64(CyclesTotal.WithLabelValues("ok")))
}
