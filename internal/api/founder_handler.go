package api

import (
	"ascend/physique-app/internal/domain"
	"ascend/physique-app/internal/store"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FounderHandler is the founder-only admin surface: promo code management
// and a view over stored records.
type FounderHandler struct {
	promos *store.PromoRegistry
	store  *store.Store
}

// NewFounderHandler creates a new FounderHandler.
func NewFounderHandler(promos *store.PromoRegistry, st *store.Store) *FounderHandler {
	return &FounderHandler{promos: promos, store: st}
}

// --- Request Structs ---

type CreatePromoRequest struct {
	Code          string               `json:"code" binding:"required"`
	Value         int                  `json:"value" binding:"required,gt=0"`
	Type          domain.PromoType     `json:"type" binding:"required,oneof=credits premium discount"`
	MagnitudeType domain.MagnitudeType `json:"magnitudeType" binding:"omitempty,oneof=fixed percentage"`
	MaxUses       int                  `json:"maxUses" binding:"omitempty,gte=0"`
	ExpiryDate    string               `json:"expiryDate"`
}

// --- Handler Methods ---

// ListPromos returns every registered promo code with its usage counters.
func (h *FounderHandler) ListPromos(c *gin.Context) {
	promos, err := h.promos.List(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load promo codes")
		return
	}
	c.JSON(http.StatusOK, promos)
}

// CreatePromo registers or replaces a promo code. Usage counters reset.
func (h *FounderHandler) CreatePromo(c *gin.Context) {
	var req CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	magnitude := req.MagnitudeType
	if magnitude == "" {
		magnitude = domain.MagnitudeFixed
	}

	promo := domain.PromoCode{
		Code:          domain.NormalizeCode(req.Code),
		Value:         req.Value,
		Type:          req.Type,
		MagnitudeType: magnitude,
		MaxUses:       req.MaxUses,
		ExpiryDate:    req.ExpiryDate,
	}

	if err := h.promos.Add(c.Request.Context(), promo); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to save promo code")
		return
	}

	c.JSON(http.StatusCreated, promo)
}

// DeletePromo removes a promo code from the registry.
func (h *FounderHandler) DeletePromo(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		abortWithError(c, http.StatusBadRequest, "Promo code is required")
		return
	}

	if err := h.promos.Remove(c.Request.Context(), code); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to delete promo code")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Promo code deleted"})
}

// ListUsers returns the IDs of every stored record.
func (h *FounderHandler) ListUsers(c *gin.Context) {
	ids, err := h.store.UserIDs(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list records")
		return
	}
	c.JSON(http.StatusOK, gin.H{"userIds": ids, "count": len(ids)})
}
