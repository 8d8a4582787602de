package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeliveryDateAcceptsBareDays(t *testing.T) {
	bogota := time.FixedZone("COT", -5*60*60)

	var req CreateOrderRequest
	require.NoError(t, json.Unmarshal([]byte(`{"customer_id":1,"delivery_date":"2025-03-17"}`), &req))
	require.NotNil(t, req.DeliveryDate)
	require.True(t, req.DeliveryDate.DateOnly)
	require.Equal(t, time.Date(2025, 3, 17, 12, 0, 0, 0, bogota), req.DeliveryDate.At(bogota))

	out, err := json.Marshal(req.DeliveryDate)
	require.NoError(t, err)
	require.JSONEq(t, `"2025-03-17"`, string(out))
}

func TestDeliveryDateAcceptsTimestamps(t *testing.T) {
	bogota := time.FixedZone("COT", -5*60*60)

	got, err := ParseDeliveryDate("2025-03-17T02:00:00Z")
	require.NoError(t, err)
	require.False(t, got.DateOnly)
	require.Equal(t, 16, got.At(bogota).Day())

	for _, bad := range []string{"17/03/2025", "", "2025-3-17"} {
		_, err := ParseDeliveryDate(bad)
		require.Error(t, err, bad)
	}
	var d DeliveryDate
	require.Error(t, json.Unmarshal([]byte(`20250317`), &d))
}
