// Package paymentprovider содержит клиент внешнего платежного провайдера:
// создание checkout-сессий на подписку и проверку подписи вебхуков.
package paymentprovider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// SignatureHeader — заголовок с HMAC-подписью тела вебхука.
const SignatureHeader = "Webhook-Signature"

type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создает новый клиент платежного провайдера.
func NewClient(apiURL, secretKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CreateCheckoutSession создает сессию оплаты подписки и возвращает
// адрес страницы, куда нужно отправить пользователя.
func (c *Client) CreateCheckoutSession(ctx context.Context, reqParams CreateSessionRequest) (*Session, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/checkout/sessions", reqParams)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetCheckoutSession возвращает сессию по идентификатору.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// VerifySignature сверяет HMAC-SHA256 подпись тела вебхука с секретом.
func VerifySignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
