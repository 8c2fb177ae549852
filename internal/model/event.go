package model

import (
	"encoding/json"
	"time"
)

// Unknown is the sentinel for attributes absent from every recognized
// field path of a payload.
const Unknown = "unknown"

// EventRecord is the canonical normalized representation of one
// transaction-level occurrence on the monitored contract. Records are
// immutable once constructed.
type EventRecord struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"txid"`
	Sender        string          `json:"sender"`
	BlockHeight   uint64          `json:"block_height"`
	ContractID    string          `json:"contract_id"`
	Method        string          `json:"method"`
	Success       bool            `json:"success"`
	Timestamp     time.Time       `json:"timestamp"`

	// Raw keeps the upstream sub-object this record was derived from,
	// for diagnostic inspection only. Never exposed on the wire.
	Raw json.RawMessage `json:"raw,omitempty"`

	// ParseError is set only on the degraded placeholder record
	// produced when normalization faults.
	ParseError string `json:"parse_error,omitempty"`
}
