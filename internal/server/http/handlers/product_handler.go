package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// ProductHandler serves catalog price quotes.
type ProductHandler struct {
	facade CatalogFacade
}

func NewProductHandler(facade CatalogFacade) *ProductHandler {
	return &ProductHandler{facade: facade}
}

// Get handles GET /api/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}
	var query dto.ProductQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		writeBadRequest(c, err)
		return
	}

	quote, err := h.facade.Quote(c.Request.Context(), id, query.VariantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProductQuoteResponse(*quote))
}
