package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordScored(t *testing.T) {
	before := testutil.ToFloat64(AssessmentsScored.WithLabelValues("retail", "Scaling"))
	unavailableBefore := testutil.ToFloat64(AssessmentBenchmarkUnavailable.WithLabelValues("retail"))

	RecordScored("retail", "Scaling", 64, false)
	RecordScored("retail", "Scaling", 66, true)

	assert.Equal(t, before+2, testutil.ToFloat64(AssessmentsScored.WithLabelValues("retail", "Scaling")))
	assert.Equal(t, unavailableBefore+1, testutil.ToFloat64(AssessmentBenchmarkUnavailable.WithLabelValues("retail")))
}

func TestRecordValidationIssue(t *testing.T) {
	before := testutil.ToFloat64(AssessmentValidationIssues.WithLabelValues("general", "OUT_OF_RANGE"))

	RecordValidationIssue("general", "OUT_OF_RANGE")

	assert.Equal(t, before+1, testutil.ToFloat64(AssessmentValidationIssues.WithLabelValues("general", "OUT_OF_RANGE")))
}
