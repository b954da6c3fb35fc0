// controllers/reconcile.go
package controllers

import (
	"net/http"
	"time"

	"salonlink-backend/config"
	"salonlink-backend/services"
	"salonlink-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// parseDateRange reads the optional from/to query parameters. Date-only
// values are snapped to day boundaries so "?from=2026-03-01&to=2026-03-01"
// covers the whole day; full RFC3339 timestamps are taken as-is.
func parseDateRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	from, ok := parseRangeBound(c, "from", utils.BeginningOfDay)
	if !ok {
		return nil, nil, false
	}
	to, ok := parseRangeBound(c, "to", utils.EndOfDay)
	if !ok {
		return nil, nil, false
	}
	return from, to, true
}

func parseRangeBound(c *gin.Context, name string, snap func(time.Time) time.Time) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}

	if t, err := time.Parse("2006-01-02", raw); err == nil {
		t = snap(t)
		return &t, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid '"+name+"' date, expected YYYY-MM-DD or RFC3339")
		return nil, false
	}
	return &t, true
}

// PreviewReconciliation is the read-only dry run: how many ledger entries a
// backfill would create and for how much. Run before the destructive pass.
func PreviewReconciliation(c *gin.Context) {
	salonID, exists := c.Get("salonId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Salon ID not found in context")
		return
	}

	salonUUID, err := uuid.Parse(salonID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid salon ID format")
		return
	}

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	reconciler := services.NewReconcilerService(config.DB)
	preview, err := reconciler.Preview(salonUUID, from, to)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to preview reconciliation")
		return
	}

	c.JSON(http.StatusOK, preview)
}

// RunBackfill creates the missing ledger entries for the salon. Safe to
// call repeatedly: the second run reports fixed=0.
func RunBackfill(c *gin.Context) {
	salonID, exists := c.Get("salonId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Salon ID not found in context")
		return
	}

	salonUUID, err := uuid.Parse(salonID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid salon ID format")
		return
	}

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	reconciler := services.NewReconcilerService(config.DB)
	result, err := reconciler.Backfill(salonUUID, from, to)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to run backfill")
		return
	}

	c.JSON(http.StatusOK, result)
}
