package handlers

import (
	"net/http"
	"strconv"
	"time"

	"ridelink/utils"

	"github.com/gin-gonic/gin"
)

// NearestDriversHandler ranks available drivers for a pickup and time.
func (hb *HandlerBundle) NearestDriversHandler(c *gin.Context) {
	pickup := c.Query("pickup")
	if pickup == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing required query parameter: pickup", "")
		return
	}

	requestedTime := time.Now().Add(15 * time.Minute)
	if at := c.Query("at"); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid 'at' timestamp, want RFC3339", at)
			return
		}
		requestedTime = t
	}

	maxResults := 3
	if n := c.Query("limit"); n != "" {
		if parsed, err := strconv.Atoi(n); err == nil && parsed > 0 {
			maxResults = parsed
		}
	}

	ranked, err := hb.BookingSvc.FindNearestAvailable(c.Request.Context(), pickup, requestedTime, maxResults)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Could not rank drivers", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"drivers": ranked})
}
