package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk/models"
)

func TestRemote_ProcessQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, processPath, r.URL.Path)
		assert.Equal(t, "alice", r.Header.Get("X-User-ID"))

		var req models.QueryRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "list accounts", req.Query)

		_ = json.NewEncoder(w).Encode(models.RecordsResult(models.Record{
			{Name: "Name", Value: models.StringValue("Acme")},
			{Name: "City"},
		}))
	}))
	defer srv.Close()

	raw, err := NewRemote(srv.URL+"/", "alice", time.Second).ProcessQuery(context.Background(), "list accounts")
	require.NoError(t, err)
	assert.Equal(t, models.ResultRecords, raw.Kind)
	require.Len(t, raw.Records, 1)
	assert.Nil(t, raw.Records[0][1].Value)
}

func TestRemote_StructuredError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"timeout","detail":"context deadline exceeded"}`))
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, "", time.Second).ProcessQuery(context.Background(), "q")
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusUnprocessableEntity, rerr.StatusCode)
	assert.Equal(t, "timeout", rerr.UserMessage())
}

func TestRemote_UnstructuredError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, "", time.Second).ProcessQuery(context.Background(), "q")
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Empty(t, rerr.UserMessage())
}

func TestRemote_UnknownKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"kind":"table"}`))
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, "", time.Second).ProcessQuery(context.Background(), "q")
	assert.ErrorContains(t, err, "unknown result kind")
}
