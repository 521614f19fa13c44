package api

import (
	"ascend/physique-app/internal/service"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// CreditHandler exposes the entitlement ledger: balance, purchases,
// subscription and promo redemption.
type CreditHandler struct {
	creditService service.CreditService
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(creditService service.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

// --- Request Structs ---

type PurchaseRequest struct {
	Amount int `json:"amount" binding:"required,gt=0"`
}

type RedeemRequest struct {
	Code string `json:"code" binding:"required"`
}

// --- Handler Methods ---

// GetState returns the caller's current balance, premium flag and discount.
func (h *CreditHandler) GetState(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	state, err := h.creditService.State(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load credit state")
		return
	}

	c.JSON(http.StatusOK, state)
}

// Purchase adds purchased credits to the balance.
func (h *CreditHandler) Purchase(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	balance, err := h.creditService.PurchaseCredits(c.Request.Context(), userID, req.Amount)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to record purchase")
		return
	}

	c.JSON(http.StatusOK, gin.H{"credits": balance})
}

// Subscribe marks the caller premium; all credit costs are bypassed from
// then on.
func (h *CreditHandler) Subscribe(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	if err := h.creditService.Subscribe(c.Request.Context(), userID); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to activate subscription")
		return
	}

	state, err := h.creditService.State(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load credit state")
		return
	}

	c.JSON(http.StatusOK, state)
}

// Redeem applies a promo code to the caller's ledger.
func (h *CreditHandler) Redeem(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	result, err := h.creditService.RedeemPromo(c.Request.Context(), userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromoNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPromoAlreadyRedeemed),
			errors.Is(err, service.ErrPromoExhausted),
			errors.Is(err, service.ErrPromoExpired):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to redeem code")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// ClosePrompt dismisses the upgrade prompt raised by an insufficient-funds
// denial.
func (h *CreditHandler) ClosePrompt(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	h.creditService.CloseUpgradePrompt(userID)
	c.JSON(http.StatusOK, gin.H{"showUpgradePrompt": false})
}

// Price quotes a purchase price with the caller's active discount applied.
func (h *CreditHandler) Price(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	base, err := strconv.ParseFloat(c.Query("base"), 64)
	if err != nil || base < 0 {
		abortWithError(c, http.StatusBadRequest, "Query parameter 'base' must be a non-negative number")
		return
	}

	price, err := h.creditService.DiscountedPrice(c.Request.Context(), userID, base)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute price")
		return
	}

	c.JSON(http.StatusOK, gin.H{"base": base, "price": price})
}
