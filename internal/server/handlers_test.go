package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackwatch/internal/store"
)

const testContract = "SP000000000000000000002Q6VF78.monitored"

func newTestEngine(t *testing.T, capacity int) (*store.Store, http.Handler) {
	t.Helper()
	st := store.New(capacity)
	h := NewHandler(testContract, st, nil, nil)
	return st, NewEngine(h)
}

func doRequest(engine http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, engine := newTestEngine(t, 10)

	rec := doRequest(engine, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, testContract, body["contract"])
	assert.EqualValues(t, 0, body["eventsCount"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestWebhookIngest(t *testing.T) {
	st, engine := newTestEngine(t, 10)

	payload := `{"events": [{"tx_id": "0x1", "sender": "SP1", "method": "transfer"}, {"tx_id": "0x2", "sender": "SP2", "method": "mint"}]}`
	rec := doRequest(engine, http.MethodPost, "/webhook", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["eventsProcessed"])
	assert.Equal(t, 2, st.Len())
}

func TestWebhookUnrecognizedShapeIsNotAnError(t *testing.T) {
	st, engine := newTestEngine(t, 10)

	rec := doRequest(engine, http.MethodPost, "/webhook", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 0, body["eventsProcessed"])
	assert.Equal(t, 0, st.Len())
}

func TestWebhookNormalizationFaultStillSucceeds(t *testing.T) {
	st, engine := newTestEngine(t, 10)

	rec := doRequest(engine, http.MethodPost, "/webhook", `{"events": [`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["eventsProcessed"])

	require.Equal(t, 1, st.Len())
	degraded := st.All()[0]
	assert.False(t, degraded.Success)
	assert.NotEmpty(t, degraded.ParseError)
}

func TestEventsProjection(t *testing.T) {
	_, engine := newTestEngine(t, 10)

	doRequest(engine, http.MethodPost, "/webhook", `{"events": [{"tx_id": "0x1", "sender": "SP1", "method": "transfer", "block_height": 7}]}`)

	rec := doRequest(engine, http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success     bool             `json:"success"`
		Contract    string           `json:"contract"`
		TotalEvents int              `json:"totalEvents"`
		Events      []map[string]any `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, testContract, body.Contract)
	assert.Equal(t, 1, body.TotalEvents)
	require.Len(t, body.Events, 1)

	event := body.Events[0]
	assert.Equal(t, "0x1", event["txid"])
	assert.Equal(t, "SP1", event["sender"])
	assert.Equal(t, "transfer", event["method"])
	assert.EqualValues(t, 7, event["blockHeight"])
	assert.NotEmpty(t, event["id"])
	assert.NotContains(t, event, "raw")
	assert.NotContains(t, event, "parseError")
	assert.NotContains(t, event, "parse_error")
}

func TestEventsNewestFirstAndLimit(t *testing.T) {
	_, engine := newTestEngine(t, 10)

	doRequest(engine, http.MethodPost, "/webhook", `{"events": [{"tx_id": "0x1"}]}`)
	doRequest(engine, http.MethodPost, "/webhook", `{"events": [{"tx_id": "0x2"}]}`)
	doRequest(engine, http.MethodPost, "/webhook", `{"events": [{"tx_id": "0x3"}]}`)

	rec := doRequest(engine, http.MethodGet, "/events?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Events []map[string]any `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Events, 2)
	assert.Equal(t, "0x3", body.Events[0]["txid"])
	assert.Equal(t, "0x2", body.Events[1]["txid"])
}

func TestEventsLimitClampedToCapacity(t *testing.T) {
	_, engine := newTestEngine(t, 3)

	for i := 0; i < 5; i++ {
		doRequest(engine, http.MethodPost, "/webhook", `{"events": [{"tx_id": "0x1"}]}`)
	}

	rec := doRequest(engine, http.MethodGet, "/events?limit=1000", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Events []map[string]any `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Events, 3)
}

func TestEventsRejectsBadLimit(t *testing.T) {
	_, engine := newTestEngine(t, 10)

	for _, limit := range []string{"abc", "-1", "1.5"} {
		rec := doRequest(engine, http.MethodGet, "/events?limit="+limit, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}

func TestStats(t *testing.T) {
	_, engine := newTestEngine(t, 10)

	payload := `{"events": [
		{"tx_id": "0x1", "sender": "A", "method": "x"},
		{"tx_id": "0x2", "sender": "A", "method": "x"},
		{"tx_id": "0x3", "sender": "B", "method": "y", "success": false}
	]}`
	doRequest(engine, http.MethodPost, "/webhook", payload)

	rec := doRequest(engine, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success  bool   `json:"success"`
		Contract string `json:"contract"`
		Stats    struct {
			TotalInteractions      int            `json:"totalInteractions"`
			UniqueSenders          int            `json:"uniqueSenders"`
			SuccessfulTransactions int            `json:"successfulTransactions"`
			FailedTransactions     int            `json:"failedTransactions"`
			MethodBreakdown        map[string]int `json:"methodBreakdown"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, testContract, body.Contract)
	assert.Equal(t, 3, body.Stats.TotalInteractions)
	assert.Equal(t, 2, body.Stats.UniqueSenders)
	assert.Equal(t, 2, body.Stats.SuccessfulTransactions)
	assert.Equal(t, 1, body.Stats.FailedTransactions)
	assert.Equal(t, map[string]int{"x": 2, "y": 1}, body.Stats.MethodBreakdown)
}
