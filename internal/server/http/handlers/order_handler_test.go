package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/test/facades"
	"github.com/polkiloo/storefront/internal/usecase"
)

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

const createOrderBody = `{
	"items": [{"productId": 3, "quantity": 2}, {"productId": 4, "variantId": 9, "quantity": 1}],
	"shippingAddress": {"fullName": "Ann Lee", "line1": "Main 1", "city": "Riga", "postalCode": "LV-1001", "country": "LV"},
	"paymentMethod": "card",
	"promotionId": 5
}`

func TestOrderHandlerCreate(t *testing.T) {
	var got usecase.CreateOrderInput
	facade := facades.OrderFacadeStub{CreateFn: func(_ context.Context, in usecase.CreateOrderInput) (*model.Order, error) {
		got = in
		return facades.SampleOrder(11, in.UserID), nil
	}}

	resp := performRequest(t, http.MethodPost, "/orders", NewOrderHandler(facade).Create, withUser(7), []byte(createOrderBody), jsonHeaders)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	if got.UserID != 7 || len(got.Items) != 2 || got.Items[1].VariantID == nil || *got.Items[1].VariantID != 9 {
		t.Fatalf("unexpected use case input %+v", got)
	}
	if got.PromotionID == nil || *got.PromotionID != 5 {
		t.Fatalf("expected promotion id 5, got %v", got.PromotionID)
	}
	if got.BillingAddress != got.ShippingAddress || got.ShippingAddress.City != "Riga" {
		t.Fatalf("expected billing to default to shipping, got %+v", got.BillingAddress)
	}

	var decoded dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.ID != 11 || decoded.FinalTotal != "26.00" || decoded.Subtotal != "25.00" || len(decoded.Items) != 1 {
		t.Fatalf("unexpected response %+v", decoded)
	}
	if decoded.Items[0].UnitPrice != "12.50" || decoded.Items[0].LineTotal != "25.00" {
		t.Fatalf("unexpected item %+v", decoded.Items[0])
	}
}

func TestOrderHandlerCreateFailures(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{name: "bad json", body: "nope", status: http.StatusBadRequest, code: "invalid_item"},
		{name: "missing address", body: `{"items":[{"productId":1,"quantity":1}],"paymentMethod":"card"}`, status: http.StatusBadRequest, code: "invalid_item"},
		{name: "missing payment method", body: `{"items":[{"productId":1,"quantity":1}],"shippingAddress":{"fullName":"a","line1":"b","city":"c","postalCode":"d","country":"e"}}`, status: http.StatusBadRequest, code: "invalid_item"},
		{name: "bad product id", body: `{"items":[{"productId":0,"quantity":1}],"shippingAddress":{"fullName":"a","line1":"b","city":"c","postalCode":"d","country":"e"},"paymentMethod":"card"}`, status: http.StatusBadRequest, code: "invalid_item"},
		{name: "invalid item", body: createOrderBody, err: domainErrors.ErrInvalidItem, status: http.StatusBadRequest, code: "invalid_item"},
		{name: "out of stock", body: createOrderBody, err: &domainErrors.InsufficientStockError{ProductID: 3, Requested: 2}, status: http.StatusConflict, code: "insufficient_stock"},
		{name: "promotion missing", body: createOrderBody, err: domainErrors.ErrNotFound, status: http.StatusNotFound, code: "not_found"},
		{name: "promotion not eligible", body: createOrderBody, err: domainErrors.ErrNotEligible, status: http.StatusBadRequest, code: "not_eligible"},
		{name: "number conflict", body: createOrderBody, err: domainErrors.ErrConflict, status: http.StatusConflict, code: "conflict"},
		{name: "rates down", body: createOrderBody, err: domainErrors.ErrUnavailable, status: http.StatusServiceUnavailable, code: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := facades.OrderFacadeStub{CreateFn: func(context.Context, usecase.CreateOrderInput) (*model.Order, error) {
				if tt.err == nil {
					t.Fatal("facade must not be called for invalid requests")
				}
				return nil, tt.err
			}}
			resp := performRequest(t, http.MethodPost, "/orders", NewOrderHandler(facade).Create, withUser(1), []byte(tt.body), jsonHeaders)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
			if body := decodeError(t, resp); body.Code != tt.code {
				t.Fatalf("expected code %q, got %q", tt.code, body.Code)
			}
		})
	}
}

func TestOrderHandlerList(t *testing.T) {
	var gotPage, gotLimit int
	facade := facades.OrderFacadeStub{ListFn: func(_ context.Context, userID int64, page, limit int) (*model.OrderPage, error) {
		gotPage, gotLimit = page, limit
		return &model.OrderPage{
			Orders: []model.Order{*facades.SampleOrder(1, userID), *facades.SampleOrder(2, userID)},
			Total:  12,
			Page:   2,
			Limit:  5,
		}, nil
	}}

	resp := performRoute(t, http.MethodGet, "/orders", "/orders?page=2&limit=5", NewOrderHandler(facade).List, withUser(1), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if gotPage != 2 || gotLimit != 5 {
		t.Fatalf("expected page=2 limit=5, got %d %d", gotPage, gotLimit)
	}
	var decoded dto.OrderListResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(decoded.Orders) != 2 || decoded.Total != 12 || decoded.Pages != 3 || decoded.Limit != 5 || decoded.Page != 2 {
		t.Fatalf("unexpected page %+v", decoded)
	}
}

func TestOrderHandlerListEmptyPage(t *testing.T) {
	facade := facades.OrderFacadeStub{ListFn: func(context.Context, int64, int, int) (*model.OrderPage, error) {
		return &model.OrderPage{Orders: []model.Order{}, Page: 1, Limit: 10}, nil
	}}
	resp := performRequest(t, http.MethodGet, "/orders", NewOrderHandler(facade).List, withUser(1), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(raw["orders"]) != "[]" {
		t.Fatalf("expected empty orders array, got %s", raw["orders"])
	}
}

func TestOrderHandlerListBadQuery(t *testing.T) {
	resp := performRoute(t, http.MethodGet, "/orders", "/orders?page=abc", NewOrderHandler(facades.OrderFacadeStub{}).List, withUser(1), nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestOrderHandlerGet(t *testing.T) {
	var requester pkgAuth.Claims
	facade := facades.OrderFacadeStub{GetFn: func(_ context.Context, id int64, claims pkgAuth.Claims) (*model.Order, error) {
		requester = claims
		if id == 404 {
			return nil, domainErrors.ErrNotFound
		}
		if id == 403 {
			return nil, domainErrors.ErrForbidden
		}
		return facades.SampleOrder(id, claims.UserID), nil
	}}
	handler := NewOrderHandler(facade).Get

	tests := []struct {
		target string
		status int
	}{
		{"/orders/5", http.StatusOK},
		{"/orders/404", http.StatusNotFound},
		{"/orders/403", http.StatusForbidden},
		{"/orders/abc", http.StatusBadRequest},
		{"/orders/-1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			resp := performRoute(t, http.MethodGet, "/orders/:id", tt.target, handler, withUser(9), nil, nil)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}
	if requester.UserID != 9 {
		t.Fatalf("expected requester claims to be forwarded, got %+v", requester)
	}
}

func TestOrderHandlerUpdateStatus(t *testing.T) {
	facade := facades.OrderFacadeStub{StatusFn: func(_ context.Context, id int64, status string) (*model.Order, error) {
		switch status {
		case "archived":
			return nil, domainErrors.ErrInvalidStatus
		case "shipped":
			return nil, domainErrors.ErrInvalidTransition
		}
		order := facades.SampleOrder(id, 1)
		order.Status = model.OrderStatus(status)
		return order, nil
	}}
	handler := NewOrderHandler(facade).UpdateStatus

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "processing", body: `{"status":"processing"}`, status: http.StatusOK},
		{name: "unknown status", body: `{"status":"archived"}`, status: http.StatusBadRequest},
		{name: "skipped transition", body: `{"status":"shipped"}`, status: http.StatusConflict},
		{name: "missing status", body: `{}`, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := performRoute(t, http.MethodPut, "/orders/:id/status", "/orders/3/status", handler, withUser(1), []byte(tt.body), jsonHeaders)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}

	resp := performRoute(t, http.MethodPut, "/orders/:id/status", "/orders/3/status", handler, withUser(1), []byte(`{"status":"processing"}`), jsonHeaders)
	var decoded dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.Status != "processing" || decoded.ID != 3 {
		t.Fatalf("unexpected response %+v", decoded)
	}
}

func TestOrderHandlerUpdatePayment(t *testing.T) {
	facade := facades.OrderFacadeStub{PaymentFn: func(_ context.Context, id int64, status string) (*model.Order, error) {
		if status != "paid" {
			return nil, domainErrors.ErrInvalidTransition
		}
		order := facades.SampleOrder(id, 1)
		order.PaymentStatus = model.PaymentStatusPaid
		return order, nil
	}}
	handler := NewOrderHandler(facade).UpdatePayment

	resp := performRoute(t, http.MethodPut, "/orders/:id/payment", "/orders/3/payment", handler, withUser(1), []byte(`{"status":"paid"}`), jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var decoded dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.PaymentStatus != "paid" {
		t.Fatalf("expected paid, got %q", decoded.PaymentStatus)
	}

	resp = performRoute(t, http.MethodPut, "/orders/:id/payment", "/orders/3/payment", handler, withUser(1), []byte(`{"status":"unpaid"}`), jsonHeaders)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}

	resp = performRoute(t, http.MethodPut, "/orders/:id/payment", "/orders/x/payment", handler, withUser(1), []byte(`{"status":"paid"}`), jsonHeaders)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}
