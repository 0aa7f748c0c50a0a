package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordNode(t *testing.T) {
	before := testutil.ToFloat64(NodeErrors.WithLabelValues("recall.catalog", "recall"))
	RecordNode("recall.catalog", "recall", time.Now(), 0, errors.New("boom"))
	after := testutil.ToFloat64(NodeErrors.WithLabelValues("recall.catalog", "recall"))
	assert.Equal(t, before+1, after)
}

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(Requests.WithLabelValues("ok"))
	RecordRequest("ok", time.Now())
	assert.Equal(t, before+1, testutil.ToFloat64(Requests.WithLabelValues("ok")))
}
