package handlers

import (
	"errors"
	"net/http"

	"ridelink/services/booking"
	"ridelink/utils"

	"github.com/gin-gonic/gin"
)

// BookRideHandler submits a fully specified booking to the engine.
func (hb *HandlerBundle) BookRideHandler(c *gin.Context) {
	var req booking.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", err.Error())
		return
	}

	outcome, err := hb.BookingSvc.Book(c.Request.Context(), req)
	if err != nil {
		var bookingErr *booking.BookingError
		switch {
		case errors.Is(err, booking.ErrBookingBusy):
			utils.JSONError(c, http.StatusConflict, "Booking in progress", err.Error())
		case errors.As(err, &bookingErr) && bookingErr.Code == "validationError":
			utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", bookingErr.Message)
		default:
			utils.JSONError(c, http.StatusInternalServerError, "Booking failed", "Please try again later")
		}
		return
	}

	// Feasibility rejections are decisions, not errors; 200 carries both.
	c.JSON(http.StatusOK, outcome)
}

// GetRideStatusHandler returns the audit record for a ride id.
func (hb *HandlerBundle) GetRideStatusHandler(c *gin.Context) {
	rideID := c.Param("rideId")
	if rideID == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing ride id", "")
		return
	}

	ride, err := hb.BookingSvc.GetRideStatus(rideID)
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "Ride not found", rideID)
		return
	}
	c.JSON(http.StatusOK, ride)
}

// StatsHandler returns ride counts per status.
func (hb *HandlerBundle) StatsHandler(c *gin.Context) {
	counts, err := hb.BookingSvc.Stats()
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Could not load stats", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": counts, "health": utils.GetHealthStatus()})
}
