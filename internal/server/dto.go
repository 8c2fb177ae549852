package server

import (
	"time"

	"stackwatch/internal/model"
)

type healthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	Contract      string `json:"contract"`
	EventsCount   int    `json:"eventsCount"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

type webhookResponse struct {
	Success         bool `json:"success"`
	EventsProcessed int  `json:"eventsProcessed"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type eventsResponse struct {
	Success     bool        `json:"success"`
	Contract    string      `json:"contract"`
	TotalEvents int         `json:"totalEvents"`
	Events      []eventView `json:"events"`
}

type statsResponse struct {
	Success  bool        `json:"success"`
	Contract string      `json:"contract"`
	Stats    model.Stats `json:"stats"`
}

// eventView is the externally-safe projection of an event record: the
// raw payload and parse diagnostics never leave the process.
type eventView struct {
	ID          string    `json:"id"`
	TxID        string    `json:"txid"`
	Sender      string    `json:"sender"`
	BlockHeight uint64    `json:"blockHeight"`
	Method      string    `json:"method"`
	Success     bool      `json:"success"`
	Timestamp   time.Time `json:"timestamp"`
}

func newEventView(rec model.EventRecord) eventView {
	return eventView{
		ID:          rec.ID,
		TxID:        rec.TransactionID,
		Sender:      rec.Sender,
		BlockHeight: rec.BlockHeight,
		Method:      rec.Method,
		Success:     rec.Success,
		Timestamp:   rec.Timestamp,
	}
}
