package ginserver

import (
	"errors"
	"io"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/bookings"
	"rentdesk/internal/app/handlers/lease"
	"rentdesk/internal/app/queries"
	domainbooking "rentdesk/internal/domain/booking"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
	PropertyID string `json:"property_id"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type recomputeRequest struct {
	Force      bool   `json:"force"`
	PropertyID string `json:"property_id"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	result, err := commands.Dispatch[bookings.RequestBookingCommand, *dto.BookingRequested](c.Request.Context(), h.Commands, bookings.RequestBookingCommand{
		PropertyID:      req.PropertyID,
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	result, err := queries.Ask[bookings.GetBookingQuery, dto.Booking](c.Request.Context(), h.Queries, bookings.GetBookingQuery{
		BookingID: c.Param("id"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Recompute(c *gin.Context) {
	req, ok := bindOptional(c)
	if !ok {
		return
	}
	result, err := commands.Dispatch[bookings.RecomputeTotalsCommand, *dto.RecomputeResult](c.Request.Context(), h.Commands, bookings.RecomputeTotalsCommand{
		BookingID: c.Param("id"),
		Force:     req.Force || c.Query("force") == "true",
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if domainbooking.RecomputeStatus(result.Status) == domainbooking.RecomputeDrift {
		writeDrift(c, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) RecomputeAll(c *gin.Context) {
	req, ok := bindOptional(c)
	if !ok {
		return
	}
	propertyID := req.PropertyID
	if propertyID == "" {
		propertyID = c.Query("property_id")
	}
	result, err := commands.Dispatch[bookings.RecomputeAllCommand, *dto.RecomputeSummary](c.Request.Context(), h.Commands, bookings.RecomputeAllCommand{
		PropertyID: propertyID,
		Force:      req.Force || c.Query("force") == "true",
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Lease(c *gin.Context) {
	result, err := commands.Dispatch[lease.GenerateLeaseCommand, *dto.Lease](c.Request.Context(), h.Commands, lease.GenerateLeaseCommand{
		BookingID: c.Param("id"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
			return
		}
	}
	result, err := commands.Dispatch[bookings.CancelBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, bookings.CancelBookingCommand{
		BookingID: c.Param("id"),
		Reason:    req.Reason,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// bindOptional accepts an empty body as the zero request.
func bindOptional(c *gin.Context) (recomputeRequest, bool) {
	var req recomputeRequest
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return req, false
	}
	return req, true
}

var _ BookingHTTP = BookingHandler{}
