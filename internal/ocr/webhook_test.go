package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o600))
	return path
}

func TestWebhookClientExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "invoice.pdf", hdr.Filename)

		_ = json.NewEncoder(w).Encode(webhookResponse{
			Text:       "Facture 7-7\r\nTotal: 12.00",
			Pages:      2,
			Confidence: 0.9,
		})
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, time.Second, nil)
	res, err := c.Extract(context.Background(), writeTempDoc(t))
	require.NoError(t, err)

	assert.Equal(t, "webhook", res.Method)
	assert.Equal(t, "Facture 7-7\nTotal: 12.00", res.Text)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, float32(0.9), res.Confidence)
}

func TestWebhookClientErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(webhookResponse{Error: "vision quota exceeded"})
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, time.Second, nil)
	_, err := c.Extract(context.Background(), writeTempDoc(t))
	assert.ErrorContains(t, err, "vision quota exceeded")
}

func TestWebhookClientBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, time.Second, nil)
	_, err := c.Extract(context.Background(), writeTempDoc(t))
	assert.ErrorContains(t, err, "status 502")
}
