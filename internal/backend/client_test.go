package backend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, zap.NewNop()), srv
}

func TestHTTPClient_Login(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, "pw1", body["password"])

		json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	})

	token, err := client.Login("a@b.com", "pw1")

	assert.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestHTTPClient_LoginRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad credentials"}`))
	})

	token, err := client.Login("a@b.com", "wrong")

	assert.Error(t, err)
	assert.Empty(t, token)
}

func TestHTTPClient_Register(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/register", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Анна", body["username"])
		assert.Equal(t, "1990-06-15", body["birthDate"])

		json.NewEncoder(w).Encode(map[string]string{"token": "tok-2"})
	})

	token, err := client.Register("Анна", "a@b.com", "pw1", "1990-06-15")

	assert.NoError(t, err)
	assert.Equal(t, "tok-2", token)
}

func TestHTTPClient_RegisterAlreadyExists(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"user already exists"}`))
	})

	_, err := client.Register("Анна", "a@b.com", "pw1", "1990-06-15")

	// Callers treat this as non-fatal and retry login.
	assert.Error(t, err)
}

func TestHTTPClient_GetLimits(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectedSub bool
	}{
		{
			name:        "flat",
			body:        `{"hasActiveSubscription":true,"remainingRequests":3,"canSendMessage":true}`,
			expectedSub: true,
		},
		{
			name:        "nested",
			body:        `{"limits":{"hasActiveSubscription":true,"remainingRequests":1}}`,
			expectedSub: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/chat/limits", r.URL.Path)
				assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
				w.Write([]byte(tt.body))
			})

			limits, err := client.GetLimits("tok-1")

			require.NoError(t, err)
			require.NotNil(t, limits)
			assert.Equal(t, tt.expectedSub, limits.HasActiveSubscription)
		})
	}
}

func TestHTTPClient_GetLimitsMalformed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	})

	limits, err := client.GetLimits("tok-1")

	// Malformed bodies degrade to empty limits, not errors.
	assert.NoError(t, err)
	require.NotNil(t, limits)
	assert.False(t, limits.HasActiveSubscription)
	assert.Nil(t, limits.RemainingRequests)
}

func TestHTTPClient_GetLimitsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewHTTPClient(srv.URL, zap.NewNop())

	limits, err := client.GetLimits("tok-1")

	assert.Error(t, err)
	assert.Nil(t, limits)
}

func TestHTTPClient_ClearContext(t *testing.T) {
	var gotKeepWelcome bool
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/clear-context", r.URL.Path)

		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotKeepWelcome = body["keepWelcome"]
	})

	err := client.ClearContext("tok-1", true)

	assert.NoError(t, err)
	assert.True(t, gotKeepWelcome)
}

func TestHTTPClient_SendMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/message", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "мне снился полёт", body["message"])

		w.Write([]byte(`{"aiResponse":{"message":"Полёт во сне — к свободе"}}`))
	})

	resp, err := client.SendMessage("tok-1", "мне снился полёт")

	require.NoError(t, err)
	assert.Equal(t, "Полёт во сне — к свободе", resp.Answer())
	assert.False(t, resp.NeedSubscription)
}

func TestHTTPClient_SendMessageNeedSubscription(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"needSubscription":true}`))
	})

	resp, err := client.SendMessage("tok-1", "сон")

	require.NoError(t, err)
	assert.True(t, resp.NeedSubscription)
}

func TestHTTPClient_CreatePayment(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		expectedID string
	}{
		{name: "mockPaymentId field", body: `{"mockPaymentId":"pay-1"}`, expectedID: "pay-1"},
		{name: "id fallback", body: `{"id":"pay-2"}`, expectedID: "pay-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/payment/create", r.URL.Path)

				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, float64(100), body["amount"])

				w.Write([]byte(tt.body))
			})

			id, err := client.CreatePayment("tok-1", 100, "Подписка")

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedID, id)
		})
	}
}

func TestHTTPClient_ConfirmMockPayment(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payment/mock/success/pay-1", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
	})

	err := client.ConfirmMockPayment("tok-1", "pay-1")

	assert.NoError(t, err)
}
