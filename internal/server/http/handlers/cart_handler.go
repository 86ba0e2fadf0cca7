package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/usecase"
)

// CartHandler manages the authenticated user's cart.
type CartHandler struct {
	facade CartFacade
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(facade CartFacade) *CartHandler {
	return &CartHandler{facade: facade}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.facade.Cart(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(*cart))
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidItem(c, err)
		return
	}

	cart, err := h.facade.AddCartItem(c.Request.Context(), CurrentUserID(c), usecase.OrderLine{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(*cart))
}

// RemoveItem handles DELETE /api/cart/items/:itemId.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	itemID, err := pathID(c, "itemId")
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	cart, err := h.facade.RemoveCartItem(c.Request.Context(), CurrentUserID(c), itemID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(*cart))
}

// Checkout handles POST /api/cart/checkout.
func (h *CartHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	order, err := h.facade.Checkout(c.Request.Context(), CurrentUserID(c), usecase.CheckoutInput{
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
