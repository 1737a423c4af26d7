package handlers

import (
	"net/http"
	"strconv"

	"ridelink/utils"

	"github.com/gin-gonic/gin"
)

// PreferredDriversHandler returns the rider's learned driver preferences for
// a destination.
func (hb *HandlerBundle) PreferredDriversHandler(c *gin.Context) {
	phone := c.Param("phone")
	destination := c.Query("destination")
	if !utils.IsValidPhone(phone) {
		utils.JSONError(c, http.StatusBadRequest, "Invalid phone", phone)
		return
	}
	if destination == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing required query parameter: destination", "")
		return
	}

	minRides := 1
	if n := c.Query("minRides"); n != "" {
		if parsed, err := strconv.Atoi(n); err == nil && parsed > 0 {
			minRides = parsed
		}
	}

	ranked, err := hb.PreferenceSvc.QueryPreferredDrivers(c.Request.Context(), utils.NormalizePhone(phone), destination, minRides)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Could not query preferences", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"drivers": ranked})
}
