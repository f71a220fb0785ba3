// Package paypal adapts the PayPal Orders v2 REST API to the payment
// gateway port. The workflow treats it as an opaque remote call; capture
// results are stored as reported, not re-verified.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storeflow/storefront/internal/fulfillment/application"
	"github.com/storeflow/storefront/internal/fulfillment/domain"
	"github.com/storeflow/storefront/pkg/apperr"
)

type Client struct {
	log          *slog.Logger
	http         *http.Client
	baseURL      string
	clientID     string
	clientSecret string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(log *slog.Logger, baseURL, clientID, clientSecret string) *Client {
	return &Client{
		log:          log,
		http:         &http.Client{Timeout: 10 * time.Second},
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok tokenResp
	if err := c.do(req, &tok); err != nil {
		return "", err
	}

	c.token = tok.AccessToken
	// Refresh slightly early so an almost-expired token is never sent.
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

type createOrderReq struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type purchaseUnit struct {
	Amount amount `json:"amount"`
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type orderResp struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
	Payer struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID         string `json:"id"`
				Status     string `json:"status"`
				UpdateTime string `json:"update_time"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// CreateCharge opens a PayPal order for the given total and returns its id
// together with the buyer approval link.
func (c *Client) CreateCharge(ctx context.Context, total decimal.Decimal, currency string) (application.Charge, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return application.Charge{}, err
	}

	body, err := json.Marshal(createOrderReq{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			Amount: amount{CurrencyCode: currency, Value: total.StringFixed(2)},
		}},
	})
	if err != nil {
		return application.Charge{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/checkout/orders", bytes.NewReader(body))
	if err != nil {
		return application.Charge{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	var resp orderResp
	if err := c.do(req, &resp); err != nil {
		return application.Charge{}, err
	}

	charge := application.Charge{ID: resp.ID}
	for _, l := range resp.Links {
		if l.Rel == "approve" {
			charge.ApprovalURL = l.Href
		}
	}
	c.log.Info("gateway charge created", "charge_id", charge.ID)
	return charge, nil
}

// CaptureCharge captures an approved PayPal order and maps the result into
// the payment-result fields the workflow stores.
func (c *Client) CaptureCharge(ctx context.Context, chargeID string) (domain.PaymentResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return domain.PaymentResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v2/checkout/orders/%s/capture", c.baseURL, url.PathEscape(chargeID)), http.NoBody)
	if err != nil {
		return domain.PaymentResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	var resp orderResp
	if err := c.do(req, &resp); err != nil {
		return domain.PaymentResult{}, err
	}

	result := domain.PaymentResult{
		TransactionID: resp.ID,
		Status:        resp.Status,
		PayerEmail:    resp.Payer.EmailAddress,
	}
	if len(resp.PurchaseUnits) > 0 {
		if caps := resp.PurchaseUnits[0].Payments.Captures; len(caps) > 0 {
			result.TransactionID = caps[0].ID
			result.UpdateTime = caps[0].UpdateTime
		}
	}
	c.log.Info("gateway charge captured", "charge_id", chargeID, "status", result.Status)
	return result, nil
}

// do executes the request and decodes the body, classifying failures as
// transient (network, timeout, 5xx) or permanent (4xx).
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Gateway(err, true, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return apperr.Gateway(nil, true, "payment gateway error: status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperr.Gateway(nil, false, "payment gateway rejected request: status %d: %s", resp.StatusCode, msg)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Gateway(err, false, "payment gateway returned malformed response")
	}
	return nil
}
