// Package storage provides the diagnostics sink for payloads that
// matched no extraction strategy. Unmatched shapes are not errors, but
// they are the first sign of a new upstream wire format, so they are
// kept on disk for offline inspection.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Archive is a sink for unmatched webhook payloads.
type Archive interface {
	PutPayload(payload []byte, receivedAt time.Time) error
}

// JsonlArchive appends unmatched payloads to a JSONL file.
type JsonlArchive struct {
	path string
	mu   sync.Mutex
}

func NewJsonlArchive(path string) *JsonlArchive {
	return &JsonlArchive{path: path}
}

type archiveEntry struct {
	ReceivedAt string          `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}

// PutPayload appends one payload as a JSON line. Payloads that are not
// valid JSON are stored as a quoted string so the line stays parseable.
func (a *JsonlArchive) PutPayload(payload []byte, receivedAt time.Time) error {
	entry := archiveEntry{
		ReceivedAt: receivedAt.UTC().Format(time.RFC3339Nano),
	}
	if json.Valid(payload) {
		entry.Payload = payload
	} else {
		quoted, err := json.Marshal(string(payload))
		if err != nil {
			return fmt.Errorf("quote payload: %w", err)
		}
		entry.Payload = quoted
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal archive entry: %w", err)
	}

	dir := filepath.Dir(a.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create archive dir: %w", err)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open archive file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write archive entry: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}

	return nil
}
