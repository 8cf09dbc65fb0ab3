package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	metaTimeout = 10 * time.Second
	chatTimeout = 30 * time.Second
)

// Client defines the backend operations the bot consumes. All calls are
// synchronous with fixed timeouts; a timeout surfaces as an error, never
// a hang.
type Client interface {
	Login(email, password string) (string, error)
	Register(username, email, password, birthISO string) (string, error)
	GetLimits(token string) (*Limits, error)
	GetSubscriptionStatus(token string) (*SubscriptionStatus, error)
	ClearContext(token string, keepWelcome bool) error
	SendMessage(token, message string) (*ChatResponse, error)
	CreatePayment(token string, amount int, description string) (string, error)
	ConfirmMockPayment(token, paymentID string) error
}

// HTTPClient implements Client against the dream-interpretation backend
type HTTPClient struct {
	baseURL string
	meta    *http.Client // login, register, limits, payments, clear-context
	chat    *http.Client // chat turns take longer
	logger  *zap.Logger
}

// NewHTTPClient creates a backend client for the given base URL
// (scheme and host, no trailing slash)
func NewHTTPClient(baseURL string, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		meta:    &http.Client{Timeout: metaTimeout},
		chat:    &http.Client{Timeout: chatTimeout},
		logger:  logger,
	}
}

func (c *HTTPClient) do(client *http.Client, method, path, token string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request %s: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	return resp, nil
}

// Login exchanges credentials for a session token
func (c *HTTPClient) Login(email, password string) (string, error) {
	resp, err := c.do(c.meta, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Login failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return "", fmt.Errorf("login failed: status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("login response without token")
	}

	c.logger.Info("Login OK", zap.String("email", email))
	return out.Token, nil
}

// Register creates a backend account. An "already exists" rejection is
// an error here; callers treat it as non-fatal and retry login.
func (c *HTTPClient) Register(username, email, password, birthISO string) (string, error) {
	resp, err := c.do(c.meta, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":  username,
		"email":     email,
		"password":  password,
		"birthDate": birthISO,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Register failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return "", fmt.Errorf("register failed: status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode register response: %w", err)
	}

	c.logger.Info("Register OK", zap.String("email", email))
	return out.Token, nil
}

// GetLimits fetches the user's chat quota. A malformed body degrades to
// empty limits rather than an error.
func (c *HTTPClient) GetLimits(token string) (*Limits, error) {
	resp, err := c.do(c.meta, http.MethodGet, "/api/chat/limits", token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var limits Limits
	if err := json.NewDecoder(resp.Body).Decode(&limits); err != nil {
		c.logger.Warn("Malformed limits response", zap.Error(err))
		return &Limits{}, nil
	}
	return &limits, nil
}

// GetSubscriptionStatus fetches the payment service's view of the user
func (c *HTTPClient) GetSubscriptionStatus(token string) (*SubscriptionStatus, error) {
	resp, err := c.do(c.meta, http.MethodGet, "/api/payment/subscription/status", token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var status SubscriptionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		c.logger.Warn("Malformed subscription status response", zap.Error(err))
		return &SubscriptionStatus{}, nil
	}
	return &status, nil
}

// ClearContext drops the user's conversational memory on the backend
func (c *HTTPClient) ClearContext(token string, keepWelcome bool) error {
	resp, err := c.do(c.meta, http.MethodPost, "/api/chat/clear-context", token, map[string]bool{
		"keepWelcome": keepWelcome,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Info("Context cleared", zap.Int("status", resp.StatusCode))
	return nil
}

// SendMessage runs one chat turn. A malformed body degrades to an empty
// response whose Answer() is the generic unavailability text.
func (c *HTTPClient) SendMessage(token, message string) (*ChatResponse, error) {
	resp, err := c.do(c.chat, http.MethodPost, "/api/chat/message", token, map[string]string{
		"message": message,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logger.Warn("Malformed chat response", zap.Error(err))
		return &ChatResponse{}, nil
	}
	return &out, nil
}

// CreatePayment creates a pending payment and returns its id
func (c *HTTPClient) CreatePayment(token string, amount int, description string) (string, error) {
	resp, err := c.do(c.meta, http.MethodPost, "/api/payment/create", token, map[string]interface{}{
		"amount":      amount,
		"description": description,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Payment create failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return "", fmt.Errorf("payment create failed: status %d", resp.StatusCode)
	}

	var out struct {
		MockPaymentID string `json:"mockPaymentId"`
		ID            string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode payment response: %w", err)
	}

	if out.MockPaymentID != "" {
		return out.MockPaymentID, nil
	}
	return out.ID, nil
}

// ConfirmMockPayment marks a mock payment as paid
func (c *HTTPClient) ConfirmMockPayment(token, paymentID string) error {
	resp, err := c.do(c.meta, http.MethodPost, "/api/payment/mock/success/"+paymentID, token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Info("Mock payment confirmed",
		zap.String("payment_id", paymentID),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}
