package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
)

type fakePayPal struct {
	tokenCalls int32
	lastOrder  map[string]interface{}
	capture    http.HandlerFunc
	get        http.HandlerFunc
}

func (f *fakePayPal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		if user, pass, ok := r.BasicAuth(); !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok", "expires_in": 32400})
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		json.NewDecoder(r.Body).Decode(&f.lastOrder)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"ORDER-1","status":"CREATED"}`))
	})
	mux.HandleFunc("/v2/checkout/orders/ORDER-1/capture", func(w http.ResponseWriter, r *http.Request) {
		f.capture(w, r)
	})
	mux.HandleFunc("/v2/checkout/orders/ORDER-1", func(w http.ResponseWriter, r *http.Request) {
		f.get(w, r)
	})
	return mux
}

const completedOrder = `{"id":"ORDER-1","status":"COMPLETED","purchase_units":[{"reference_id":"p1","payments":{"captures":[{"id":"CAP-9","status":"COMPLETED"}]}}]}`

func newTestPayPal(t *testing.T, f *fakePayPal) *PayPalClient {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewPayPalClient(PayPalConfig{
		BaseURL:      srv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		BrandName:    "Artisans",
		ReturnURL:    "https://app.test/payment/success",
		CancelURL:    "https://app.test/payment/cancel",
	})
}

func TestPayPalCreateOrder(t *testing.T) {
	f := &fakePayPal{}
	client := newTestPayPal(t, f)

	order, err := client.CreateOrder(context.Background(), OrderRequest{
		ReferenceID: "pay-1",
		CustomID:    "booking-1",
		Description: "Service: Réparation fuite",
		Amount:      decimal.NewFromInt(15),
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID != "ORDER-1" {
		t.Errorf("order id = %q", order.ID)
	}

	units := f.lastOrder["purchase_units"].([]interface{})
	unit := units[0].(map[string]interface{})
	amount := unit["amount"].(map[string]interface{})
	if amount["value"] != "15.00" || amount["currency_code"] != "USD" {
		t.Errorf("amount = %v", amount)
	}
	if unit["reference_id"] != "pay-1" || unit["custom_id"] != "booking-1" {
		t.Errorf("purchase unit = %v", unit)
	}
	if f.lastOrder["intent"] != "CAPTURE" {
		t.Errorf("intent = %v", f.lastOrder["intent"])
	}
}

func TestPayPalTokenIsCached(t *testing.T) {
	f := &fakePayPal{}
	client := newTestPayPal(t, f)
	req := OrderRequest{ReferenceID: "pay-1", Amount: decimal.NewFromInt(10), Currency: "USD"}

	for i := 0; i < 3; i++ {
		if _, err := client.CreateOrder(context.Background(), req); err != nil {
			t.Fatalf("create order: %v", err)
		}
	}
	if n := atomic.LoadInt32(&f.tokenCalls); n != 1 {
		t.Errorf("token fetched %d times, want 1", n)
	}
}

func TestPayPalCapture(t *testing.T) {
	f := &fakePayPal{capture: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(completedOrder))
	}}
	client := newTestPayPal(t, f)

	capture, err := client.CaptureOrder(context.Background(), "ORDER-1")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if capture.CaptureID != "CAP-9" || capture.OrderID != "ORDER-1" {
		t.Errorf("capture = %+v", capture)
	}
}

func TestPayPalCaptureAlreadyCaptured(t *testing.T) {
	f := &fakePayPal{
		capture: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY","message":"already done","details":[{"issue":"ORDER_ALREADY_CAPTURED"}]}`))
		},
		get: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(completedOrder))
		},
	}
	client := newTestPayPal(t, f)

	capture, err := client.CaptureOrder(context.Background(), "ORDER-1")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if capture.CaptureID != "CAP-9" {
		t.Errorf("capture id = %q, want the stored capture", capture.CaptureID)
	}
}

func TestPayPalCaptureErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		issue    string
		terminal bool
	}{
		{"not approved", http.StatusUnprocessableEntity, `{"message":"payer has not approved","details":[{"issue":"ORDER_NOT_APPROVED"}]}`, "ORDER_NOT_APPROVED", false},
		{"refused", http.StatusUnprocessableEntity, `{"message":"refused","details":[{"issue":"TRANSACTION_REFUSED"}]}`, "TRANSACTION_REFUSED", true},
		{"server error", http.StatusInternalServerError, `oops`, "", false},
		{"declined capture", http.StatusCreated, `{"id":"ORDER-1","status":"COMPLETED","purchase_units":[{"payments":{"captures":[{"id":"CAP-1","status":"DECLINED"}]}}]}`, "CAPTURE_DECLINED", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakePayPal{capture: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}}
			client := newTestPayPal(t, f)

			_, err := client.CaptureOrder(context.Background(), "ORDER-1")
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *Error", err)
			}
			if perr.Issue != tt.issue || perr.Terminal != tt.terminal {
				t.Errorf("issue = %q terminal = %v, want %q %v", perr.Issue, perr.Terminal, tt.issue, tt.terminal)
			}
		})
	}
}

func TestPayPalBadCredentials(t *testing.T) {
	f := &fakePayPal{}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()
	client := NewPayPalClient(PayPalConfig{BaseURL: srv.URL, ClientID: "client", ClientSecret: "wrong"})

	_, err := client.CreateOrder(context.Background(), OrderRequest{Amount: decimal.NewFromInt(1), Currency: "USD"})
	var perr *Error
	if !errors.As(err, &perr) || perr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("error = %v, want 401 *Error", err)
	}
}
