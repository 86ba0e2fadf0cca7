package rates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const defaultRetryAfter = 5 * time.Second

// TooManyRequestsError represents rate limiting signal from the rates service.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// HTTPClient quotes shipping and tax through the rates service HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

type quoteItem struct {
	ProductID int64           `json:"productId"`
	VariantID *int64          `json:"variantId,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type quoteRequest struct {
	UserID   int64           `json:"userId"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Address  model.Address   `json:"shippingAddress"`
	Items    []quoteItem     `json:"items"`
}

// quoteResponse mirrors JSON payload from the rates service.
type quoteResponse struct {
	ShippingFee decimal.Decimal `json:"shippingFee"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
}

// NewHTTPClient creates rates client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse rates url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("rates url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}, nil
}

// Quote asks the rates service for shipping fee and tax of an order draft.
// Transport failures and non-200 answers are reported as ErrUnavailable.
func (c *HTTPClient) Quote(ctx context.Context, req model.ChargesRequest) (model.Charges, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/quotes")

	payload := quoteRequest{
		UserID:   req.UserID,
		Subtotal: req.Subtotal,
		Address:  req.ShippingAddress,
		Items:    make([]quoteItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		payload.Items = append(payload.Items, quoteItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return model.Charges{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return model.Charges{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return model.Charges{}, fmt.Errorf("rates request: %w: %w", domainErrors.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var data quoteResponse
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return model.Charges{}, fmt.Errorf("decode rates response: %w: %w", domainErrors.ErrUnavailable, err)
		}
		if data.ShippingFee.IsNegative() || data.TaxAmount.IsNegative() {
			return model.Charges{}, fmt.Errorf("rates returned negative charges: %w", domainErrors.ErrUnavailable)
		}
		return model.Charges{ShippingFee: data.ShippingFee.Round(2), TaxAmount: data.TaxAmount.Round(2)}, nil
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return model.Charges{}, fmt.Errorf("%w: %w", domainErrors.ErrUnavailable, TooManyRequestsError{RetryAfter: retryAfter})
	default:
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("rates request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(raw)))
		return model.Charges{}, fmt.Errorf("rates error %s: %w", resp.Status, domainErrors.ErrUnavailable)
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return defaultRetryAfter
}
