package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationAdded(t *testing.T) {
	before := testutil.ToFloat64(NotificationsAdded.WithLabelValues("market", "true"))

	NotificationAdded("market", true)

	after := testutil.ToFloat64(NotificationsAdded.WithLabelValues("market", "true"))
	assert.Equal(t, before+1, after)
}

func TestPayments(t *testing.T) {
	ok := testutil.ToFloat64(Payments.WithLabelValues("pro", "succeeded"))
	failed := testutil.ToFloat64(Payments.WithLabelValues("pro", "failed"))

	PaymentSucceeded("pro")
	PaymentFailed("pro")
	PaymentFailed("pro")

	assert.Equal(t, ok+1, testutil.ToFloat64(Payments.WithLabelValues("pro", "succeeded")))
	assert.Equal(t, failed+2, testutil.ToFloat64(Payments.WithLabelValues("pro", "failed")))
}

func TestHandler(t *testing.T) {
	ActionDenied("grade_card", "free")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "hypeflow_actions_denied_total")
}
