package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJsonlArchiveAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "unmatched.jsonl")
	archive := NewJsonlArchive(path)

	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	if err := archive.PutPayload([]byte(`{"rollback": []}`), now); err != nil {
		t.Fatalf("put payload: %v", err)
	}
	if err := archive.PutPayload([]byte(`not json at all`), now); err != nil {
		t.Fatalf("put payload: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer file.Close()

	var entries []archiveEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry archiveEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("parse archive line: %v", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan archive: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ReceivedAt == "" {
		t.Fatalf("received_at must be set")
	}

	var quoted string
	if err := json.Unmarshal(entries[1].Payload, &quoted); err != nil {
		t.Fatalf("non-JSON payload must be stored as a quoted string: %v", err)
	}
	if quoted != "not json at all" {
		t.Fatalf("quoted payload mismatch: %q", quoted)
	}
}
