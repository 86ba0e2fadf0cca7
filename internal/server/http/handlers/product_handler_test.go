package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	testhelpers "github.com/polkiloo/storefront/internal/test"
	"github.com/polkiloo/storefront/internal/test/facades"
)

func TestProductHandlerGet(t *testing.T) {
	facade := facades.CatalogFacadeStub{QuoteFn: func(_ context.Context, productID int64, variantID *int64) (*model.PriceQuote, error) {
		if productID == 99 {
			return nil, domainErrors.ErrNotFound
		}
		quote := &model.PriceQuote{ProductID: productID, UnitPrice: decimal.RequireFromString("19.9"), AvailableStock: 0}
		if variantID != nil {
			quote.VariantID = variantID
			quote.UnitPrice = decimal.RequireFromString("21")
			quote.AvailableStock = 4
		}
		return quote, nil
	}}
	handler := NewProductHandler(facade).Get

	resp := performRoute(t, http.MethodGet, "/products/:id", "/products/5", handler, nil, nil, nil)
	var decoded dto.ProductQuoteResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != http.StatusOK || decoded.UnitPrice != "19.90" || decoded.InStock {
		t.Fatalf("unexpected response %d %+v", resp.Code, decoded)
	}

	resp = performRoute(t, http.MethodGet, "/products/:id", "/products/5?variantId=7", handler, nil, nil, nil)
	decoded = dto.ProductQuoteResponse{}
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.VariantID == nil || *decoded.VariantID != 7 || decoded.UnitPrice != "21.00" || !decoded.InStock {
		t.Fatalf("unexpected variant response %+v", decoded)
	}

	if resp := performRoute(t, http.MethodGet, "/products/:id", "/products/99", handler, nil, nil, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
	if resp := performRoute(t, http.MethodGet, "/products/:id", "/products/5?variantId=x", handler, nil, nil, nil); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/healthz", NewHealthHandler(testhelpers.HealthStub{}).Check, nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/healthz", NewHealthHandler(testhelpers.HealthStub{Err: errors.New("db down")}).Check, nil, nil, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.Code)
	}
}
