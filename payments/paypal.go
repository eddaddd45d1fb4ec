package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	issueAlreadyCaptured = "ORDER_ALREADY_CAPTURED"
	statusCompleted      = "COMPLETED"
)

// Issues after which the order can never be captured.
var terminalIssues = map[string]bool{
	"TRANSACTION_REFUSED":                    true,
	"MAX_NUMBER_OF_PAYMENT_ATTEMPTS_EXCEEDED": true,
	"PAYEE_ACCOUNT_RESTRICTED":               true,
	"PAYER_ACCOUNT_RESTRICTED":               true,
}

type PayPalConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	BrandName    string
	ReturnURL    string
	CancelURL    string
	HTTPClient   *http.Client
	Cache        TokenCache
}

type PayPalClient struct {
	cfg    PayPalConfig
	client *http.Client
	cache  TokenCache
}

func NewPayPalClient(cfg PayPalConfig) *PayPalClient {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	cache := cfg.Cache
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	return &PayPalClient{cfg: cfg, client: client, cache: cache}
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalCapture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type PayPalOrder struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		ReferenceID string `json:"reference_id"`
		Payments    struct {
			Captures []paypalCapture `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

type paypalErrorBody struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Details []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`
}

func (p *PayPalClient) tokenKey() string {
	return "paypal:access_token:" + p.cfg.ClientID
}

func (p *PayPalClient) accessToken(ctx context.Context) (string, error) {
	if token, ok := p.cache.Get(ctx, p.tokenKey()); ok {
		return token, nil
	}

	reqBody := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/oauth2/token", reqBody)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &Error{Op: "paypal token", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Op: "paypal token", StatusCode: resp.StatusCode, Message: "failed to get access token"}
	}

	var tokenResp accessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", &Error{Op: "paypal token", Err: err}
	}

	// refresh five minutes early
	ttl := time.Duration(tokenResp.ExpiresIn)*time.Second - 5*time.Minute
	if ttl < time.Minute {
		ttl = time.Minute
	}
	p.cache.Set(ctx, p.tokenKey(), tokenResp.AccessToken, ttl)
	return tokenResp.AccessToken, nil
}

// do sends an authenticated JSON request and decodes a 2xx body into out. Any other
// status is returned as *Error carrying the first PayPal issue code.
func (p *PayPalClient) do(ctx context.Context, op, method, path string, payload, out interface{}) error {
	token, err := p.accessToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := &Error{Op: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var eb paypalErrorBody
		if json.Unmarshal(respBody, &eb) == nil {
			if eb.Message != "" {
				perr.Message = eb.Message
			}
			if len(eb.Details) > 0 {
				perr.Issue = eb.Details[0].Issue
			}
		}
		perr.Terminal = terminalIssues[perr.Issue]
		return perr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func (p *PayPalClient) CreateOrder(ctx context.Context, r OrderRequest) (*Order, error) {
	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": r.ReferenceID,
				"custom_id":    r.CustomID,
				"description":  r.Description,
				"amount": paypalAmount{
					CurrencyCode: r.Currency,
					Value:        r.Amount.StringFixed(2),
				},
			},
		},
		"application_context": map[string]string{
			"brand_name":  p.cfg.BrandName,
			"user_action": "PAY_NOW",
			"return_url":  p.cfg.ReturnURL,
			"cancel_url":  p.cfg.CancelURL,
		},
	}

	var order PayPalOrder
	if err := p.do(ctx, "paypal create order", http.MethodPost, "/v2/checkout/orders", payload, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, &Error{Op: "paypal create order", Message: "response carried no order id"}
	}
	return &Order{ID: order.ID, Status: order.Status}, nil
}

func (p *PayPalClient) GetOrder(ctx context.Context, orderID string) (*PayPalOrder, error) {
	var order PayPalOrder
	if err := p.do(ctx, "paypal get order", http.MethodGet, "/v2/checkout/orders/"+orderID, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CaptureOrder captures an approved order. An order captured by an earlier call is
// read back and reported as a fresh capture so the caller can record it.
func (p *PayPalClient) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	var order PayPalOrder
	err := p.do(ctx, "paypal capture order", http.MethodPost, "/v2/checkout/orders/"+orderID+"/capture", map[string]interface{}{}, &order)
	if err != nil {
		var perr *Error
		if !errors.As(err, &perr) || perr.Issue != issueAlreadyCaptured {
			return nil, err
		}
		existing, gerr := p.GetOrder(ctx, orderID)
		if gerr != nil {
			return nil, gerr
		}
		order = *existing
	}
	return captureFromOrder(orderID, &order)
}

func captureFromOrder(orderID string, order *PayPalOrder) (*Capture, error) {
	var capture paypalCapture
	if len(order.PurchaseUnits) > 0 && len(order.PurchaseUnits[0].Payments.Captures) > 0 {
		capture = order.PurchaseUnits[0].Payments.Captures[0]
	}

	switch {
	case capture.Status == "DECLINED" || capture.Status == "FAILED":
		return nil, &Error{Op: "paypal capture order", Issue: "CAPTURE_" + capture.Status, Message: "capture was declined", Terminal: true}
	case order.Status != statusCompleted:
		return nil, &Error{Op: "paypal capture order", Issue: order.Status, Message: "order is not completed"}
	case capture.ID == "":
		return nil, &Error{Op: "paypal capture order", Message: "response carried no capture id"}
	}
	return &Capture{OrderID: orderID, CaptureID: capture.ID, Status: capture.Status}, nil
}
