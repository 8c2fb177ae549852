package chainhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterSubmitsPredicate(t *testing.T) {
	var gotBody []byte
	var gotAPIKey, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("X-API-Key")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-key", nil)
	pred := NewContractCallPredicate("SP1.contract", "mainnet", "https://example.com/webhook", "secret-key")

	require.NoError(t, client.Register(context.Background(), pred))

	assert.Equal(t, "secret-key", gotAPIKey)
	assert.Equal(t, "application/json", gotContentType)

	var decoded Predicate
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "stacks", decoded.Chain)
	assert.NotEmpty(t, decoded.UUID)

	network, ok := decoded.Networks["mainnet"]
	require.True(t, ok)
	assert.Equal(t, "contract_call", network.IfThis.Scope)
	assert.Equal(t, "SP1.contract", network.IfThis.ContractIdentifier)
	assert.Equal(t, "*", network.IfThis.Method)
	assert.Equal(t, "https://example.com/webhook", network.ThenThat.HTTPPost.URL)
	assert.Equal(t, "Bearer secret-key", network.ThenThat.HTTPPost.AuthorizationHeader)
}

func TestRegisterReportsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "predicate already exists", http.StatusConflict)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-key", nil)
	pred := NewContractCallPredicate("SP1.contract", "mainnet", "https://example.com/webhook", "secret-key")

	err := client.Register(context.Background(), pred)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "predicate already exists")
}

func TestRegisterReportsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	srv.Close() // refuse connections

	client := NewClient(srv.URL, "secret-key", nil)
	pred := NewContractCallPredicate("SP1.contract", "mainnet", "https://example.com/webhook", "secret-key")

	require.Error(t, client.Register(context.Background(), pred))
}
