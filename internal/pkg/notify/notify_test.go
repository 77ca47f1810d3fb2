package notify

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

func TestService_Disabled(t *testing.T) {
	svc := NewService("")

	assert.False(t, svc.Enabled())

	// All notifications are no-ops without a webhook URL
	err := svc.NotifyCheckoutCompleted(context.Background(), "a@b.com", "Monthly", "$9.90")
	assert.NoError(t, err)
}

func TestService_NotifyCheckoutCompleted(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewService(server.URL)
	assert.True(t, svc.Enabled())

	err := svc.NotifyCheckoutCompleted(context.Background(), "user@example.com", "Yearly", "$95.90")
	require.NoError(t, err)

	assert.Contains(t, received["text"], "Checkout completed")
	assert.Contains(t, received["text"], "user@example.com")
	assert.Contains(t, received["text"], "Yearly")
	assert.Contains(t, received["text"], "$95.90")
}

func TestService_NotifyCancelFeedback(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewService(server.URL)

	t.Run("with detail", func(t *testing.T) {
		err := svc.NotifyCancelFeedback(context.Background(), "user@example.com", "too_expensive", "switching to a cheaper tool")
		require.NoError(t, err)
		assert.Contains(t, received["text"], "too_expensive")
		assert.Contains(t, received["text"], "switching to a cheaper tool")
	})

	t.Run("without detail", func(t *testing.T) {
		err := svc.NotifyCancelFeedback(context.Background(), "user@example.com", "missing_features", "")
		require.NoError(t, err)
		assert.Contains(t, received["text"], "missing_features")
		assert.NotContains(t, received["text"], "Detail")
	})
}

func TestService_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(server.URL)

	err := svc.NotifyAccountDeleted(context.Background(), "user@example.com")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
