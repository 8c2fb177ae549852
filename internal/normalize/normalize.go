// Package normalize extracts canonical event records from the
// heterogeneous webhook payload shapes the notification provider has
// shipped over its lifetime: a flat events list, a block/apply stream,
// and a flattened transactions list. The provider does not version
// payloads in a machine-checkable way, so every shape is tolerated
// indefinitely.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fastjson"

	"stackwatch/internal/model"
)

// TransactionIDParseError marks the degraded record produced when
// extraction faults.
const TransactionIDParseError = "parse-error"

// Normalize extracts event records from one raw webhook payload.
// Every recognized shape is attempted and the results concatenated; a
// payload matching no shape yields zero records. Any fault during
// extraction, including an unparseable body, discards partial results
// and yields exactly one degraded record carrying ParseError. Normalize
// never panics.
func Normalize(payload []byte, contractFallback string) (records []model.EventRecord) {
	now := time.Now().UTC()

	defer func() {
		if r := recover(); r != nil {
			records = []model.EventRecord{degradedRecord(payload, contractFallback, fmt.Sprintf("extract: %v", r), now)}
		}
	}()

	root, err := fastjson.ParseBytes(payload)
	if err != nil {
		return []model.EventRecord{degradedRecord(payload, contractFallback, fmt.Sprintf("parse payload: %v", err), now)}
	}

	var out []model.EventRecord
	for _, extract := range []func(*fastjson.Value, string, time.Time) ([]model.EventRecord, error){
		flatEventRecords,
		blockApplyRecords,
		directTransactionRecords,
	} {
		recs, err := extract(root, contractFallback, now)
		if err != nil {
			return []model.EventRecord{degradedRecord(payload, contractFallback, err.Error(), now)}
		}
		out = append(out, recs...)
	}

	return out
}

// flatEventRecords handles the versioned predicate-match shape: an
// array of event objects at `events` or nested under `data`.
func flatEventRecords(root *fastjson.Value, contractFallback string, now time.Time) ([]model.EventRecord, error) {
	items, err := arrayAt(root, path("events"), path("data", "events"))
	if err != nil || items == nil {
		return nil, err
	}

	records := make([]model.EventRecord, 0, len(items))
	for _, item := range items {
		records = append(records, recordFromFlat(item, 0, contractFallback, now))
	}
	return records, nil
}

// blockApplyRecords handles the block/apply streaming shape: blocks at
// `apply` (or nested under `event`), each carrying a transaction list.
func blockApplyRecords(root *fastjson.Value, contractFallback string, now time.Time) ([]model.EventRecord, error) {
	blocks, err := arrayAt(root, path("apply"), path("event", "apply"))
	if err != nil || blocks == nil {
		return nil, err
	}

	var records []model.EventRecord
	for _, block := range blocks {
		height := firstUint(block, 0,
			path("block_identifier", "index"),
			path("block_height"),
			path("metadata", "block_height"),
		)

		txs, err := arrayAt(block, path("transactions"))
		if err != nil {
			return nil, err
		}
		for _, tx := range txs {
			records = append(records, recordFromBlockTx(tx, height, contractFallback, now))
		}
	}
	return records, nil
}

// directTransactionRecords handles the flattened transactions shape,
// with block height falling back to the payload level.
func directTransactionRecords(root *fastjson.Value, contractFallback string, now time.Time) ([]model.EventRecord, error) {
	items, err := arrayAt(root, path("transactions"))
	if err != nil || items == nil {
		return nil, err
	}

	payloadHeight := firstUint(root, 0, path("block_height"))

	records := make([]model.EventRecord, 0, len(items))
	for _, item := range items {
		records = append(records, recordFromFlat(item, payloadHeight, contractFallback, now))
	}
	return records, nil
}

// recordFromFlat maps one flat event or transaction object, trying
// alternate field names per attribute in declared priority order.
func recordFromFlat(item *fastjson.Value, fallbackHeight uint64, contractFallback string, now time.Time) model.EventRecord {
	return model.EventRecord{
		ID:            uuid.NewString(),
		TransactionID: firstString(item, model.Unknown, path("tx_id"), path("txid"), path("transaction_id")),
		Sender:        firstString(item, model.Unknown, path("sender"), path("sender_address"), path("from")),
		BlockHeight:   firstUint(item, fallbackHeight, path("block_height")),
		ContractID:    firstString(item, contractFallback, path("contract_id"), path("contract_identifier")),
		Method:        firstString(item, model.Unknown, path("method"), path("function_name")),
		Success:       !isFalse(item, path("success")),
		Timestamp:     now,
		Raw:           item.MarshalTo(nil),
	}
}

// recordFromBlockTx maps one transaction of a block/apply payload. The
// metadata sub-object moved across provider versions, so it is located
// by falling back from `metadata` to the first operations entry to the
// transaction object itself.
func recordFromBlockTx(tx *fastjson.Value, height uint64, contractFallback string, now time.Time) model.EventRecord {
	meta := tx.Get("metadata")
	if meta == nil {
		if ops := tx.GetArray("operations"); len(ops) > 0 {
			meta = ops[0]
		}
	}
	if meta == nil {
		meta = tx
	}

	sender, ok := firstStringOK(meta, path("sender"), path("sender_address"))
	if !ok {
		sender = firstString(tx, model.Unknown,
			path("operations", "0", "account", "address"),
			path("sender"),
		)
	}

	method, ok := firstStringOK(meta,
		path("kind", "data", "method"),
		path("contract_call", "function_name"),
	)
	if !ok {
		method = firstString(tx, model.Unknown, path("contract_call", "function_name"))
	}

	contract, ok := firstStringOK(meta,
		path("kind", "data", "contract_identifier"),
		path("contract_call", "contract_id"),
	)
	if !ok {
		contract = contractFallback
	}

	return model.EventRecord{
		ID:            uuid.NewString(),
		TransactionID: firstString(tx, model.Unknown, path("transaction_identifier", "hash"), path("tx_id"), path("txid")),
		Sender:        sender,
		BlockHeight:   height,
		ContractID:    contract,
		Method:        method,
		Success:       blockTxSuccess(meta),
		Timestamp:     now,
		Raw:           tx.MarshalTo(nil),
	}
}

// blockTxSuccess collapses the upstream tri-state success signal: an
// explicit false flag wins, then the textual receipt result is
// inspected, and absence of any signal means success.
func blockTxSuccess(meta *fastjson.Value) bool {
	if isFalse(meta, path("success")) {
		return false
	}
	result, ok := firstStringOK(meta, path("receipt", "result"), path("result"))
	if !ok {
		return true
	}
	return successFromResult(result)
}

// successFromResult classifies a human-readable result string. The
// upstream schema for this field is undocumented; novel formats default
// to success. Error markers are checked before ok markers so a value
// carrying both counts as a failure.
func successFromResult(result string) bool {
	trimmed := strings.TrimSpace(result)
	if strings.Contains(trimmed, "(err") || strings.HasPrefix(trimmed, "err") {
		return false
	}
	if strings.Contains(trimmed, "(ok") || strings.HasPrefix(trimmed, "ok") {
		return true
	}
	return true
}

// degradedRecord is the single placeholder produced when extraction
// faults. The original payload is retained for diagnosis.
func degradedRecord(payload []byte, contractFallback, cause string, now time.Time) model.EventRecord {
	var raw json.RawMessage
	if json.Valid(payload) {
		raw = append(raw, payload...)
	} else {
		raw, _ = json.Marshal(string(payload))
	}

	return model.EventRecord{
		ID:            uuid.NewString(),
		TransactionID: TransactionIDParseError,
		Sender:        model.Unknown,
		ContractID:    contractFallback,
		Method:        model.Unknown,
		Success:       false,
		Timestamp:     now,
		Raw:           raw,
		ParseError:    cause,
	}
}
