package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jhartig/offer-comb/app/database"
	"github.com/jhartig/offer-comb/app/offers"
)

// GetOffers runs one aggregation batch for the posted address. Partial
// results are the expected success mode: the response is 200 with whatever
// subset of offers succeeded, even if every provider failed.
func (h *Handler) GetOffers(c *gin.Context) {
	var addr offers.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request must be JSON"})
		return
	}

	if addr.Street == "" || addr.HouseNumber == "" || addr.PostalCode == "" || addr.City == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address payload structure or missing required fields."})
		return
	}

	result := h.aggregator.Run(c.Request.Context(), addr)

	slog.Info("Aggregation request served", "city", addr.City, "postal_code", addr.PostalCode, "offers", len(result))
	c.JSON(http.StatusOK, result)
}

// CreateShare stores the posted offer array verbatim under a fresh short
// identifier, so a later retrieval round-trips deeply equal.
func (h *Handler) CreateShare(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request must be JSON"})
		return
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payload must be a list of offers"})
		return
	}
	if len(items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot share an empty list of offers"})
		return
	}

	id, err := h.shareRepo.Create(string(body))
	if err != nil {
		slog.Error("Failed to create share link", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create share link", "details": err.Error()})
		return
	}

	slog.Info("Share link created", "share_id", id, "offers", len(items))
	c.JSON(http.StatusCreated, gin.H{"shareId": id, "message": "Share link created successfully"})
}

// GetShare returns a previously stored offer list. An unknown identifier is
// 404; a stored payload that no longer decodes as a JSON array is 500 —
// the two are never conflated.
func (h *Handler) GetShare(c *gin.Context) {
	id := c.Param("id")
	if id == "" || len(id) > database.MaxShareIDLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid share ID format"})
		return
	}

	if h.cache != nil {
		payload, hit, err := h.cache.GetShare(c.Request.Context(), id)
		if err != nil {
			slog.Warn("Share cache lookup failed", "share_id", id, "error", err)
		} else if hit {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(payload))
			return
		}
	}

	link, err := h.shareRepo.Get(id)
	if err != nil {
		slog.Error("Failed to retrieve share link", "share_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve share link", "details": err.Error()})
		return
	}
	if link == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Share link not found"})
		return
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(link.OffersJSON), &items); err != nil {
		slog.Error("Stored share payload is corrupted", "share_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Corrupted share data"})
		return
	}

	if h.cache != nil {
		if err := h.cache.SetShare(c.Request.Context(), id, link.OffersJSON); err != nil {
			slog.Warn("Failed to cache share payload", "share_id", id, "error", err)
		}
	}

	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(link.OffersJSON))
}

// HealthCheck reports service, store, and cache health.
func (h *Handler) HealthCheck(c *gin.Context) {
	health := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
		"providers": h.aggregator.ProviderCount(),
	}

	if count, err := h.shareRepo.Count(); err == nil {
		health["shared_links"] = count
	}
	if h.cache != nil {
		health["cache"] = h.cache.Health(c.Request.Context())
	}

	c.JSON(http.StatusOK, health)
}
