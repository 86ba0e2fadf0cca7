package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/usecase"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidItem(c, err)
		return
	}

	lines := make([]usecase.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, usecase.OrderLine{ProductID: item.ProductID, VariantID: item.VariantID, Quantity: item.Quantity})
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), usecase.CreateOrderInput{
		UserID:          CurrentUserID(c),
		Items:           lines,
		ShippingAddress: req.ShippingAddress.Model(),
		BillingAddress:  req.Billing(),
		PaymentMethod:   req.PaymentMethod,
		Note:            req.Note,
		PromotionID:     req.PromotionID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewOrderResponse(*order))
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	var query dto.ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		writeBadRequest(c, err)
		return
	}

	page, err := h.facade.Orders(c.Request.Context(), CurrentUserID(c), query.Page, query.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderListResponse(page))
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	order, err := h.facade.Order(c.Request.Context(), id, CurrentClaims(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderResponse(*order))
}

// UpdateStatus handles PUT /api/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, req, ok := bindStatusRequest(c)
	if !ok {
		return
	}

	order, err := h.facade.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderResponse(*order))
}

// UpdatePayment handles PUT /api/orders/:id/payment.
func (h *OrderHandler) UpdatePayment(c *gin.Context) {
	id, req, ok := bindStatusRequest(c)
	if !ok {
		return
	}

	order, err := h.facade.UpdatePaymentStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderResponse(*order))
}

func bindStatusRequest(c *gin.Context) (int64, dto.StatusRequest, bool) {
	var req dto.StatusRequest
	id, err := pathID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return 0, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return 0, req, false
	}
	return id, req, true
}
