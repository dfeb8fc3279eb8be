package peers

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetchJSON(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"ID": "1", "Position Title": "Clerk", "Comp Rate": 8000}]`))
	}))
	defer srv.Close()

	rows, err := NewClient(zap.NewNop(), " secret ").Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "Clerk", rows[0]["Position Title"])
}

func TestFetchGzipCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("ID,Position Title,Comp Rate\n1,Clerk,8000\n2,Clerk,12000\n"))
		gz.Close()
	}))
	defer srv.Close()

	client := NewClient(nil, "")
	rows, err := client.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "12000", rows[1]["Comp Rate"])
}

func TestFetchWithoutTokenSendsNoAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	rows, err := NewClient(nil, "").Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(nil, "token").Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad status")
}
