package ginserver

import (
	"context"
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/properties"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/validation"
	domainbooking "rentdesk/internal/domain/booking"
	domainlease "rentdesk/internal/domain/lease"
	domainpricing "rentdesk/internal/domain/pricing"
	domainproperty "rentdesk/internal/domain/property"
	"rentdesk/internal/domain/shared/calendar"
)

type errorMapping struct {
	targets []error
	status  int
	message string
}

// errorTable is checked in order; date problems win over generic validation failures.
var errorTable = []errorMapping{
	{[]error{domainpricing.ErrInvalidRange, calendar.ErrInvalidDate, properties.ErrCalendarWindow}, http.StatusBadRequest, "select valid dates"},
	{[]error{domainpricing.ErrUnavailable}, http.StatusConflict, "dates unavailable"},
	{[]error{validation.ErrInvalid, domainpricing.ErrInvalidRate, domainpricing.ErrInvalidOverride, domainbooking.ErrGuestRequired}, http.StatusBadRequest, "invalid request"},
	{[]error{domainproperty.ErrPropertyNotFound, domainbooking.ErrBookingNotFound}, http.StatusNotFound, "not found"},
	{[]error{middleware.ErrForbidden}, http.StatusForbidden, "insufficient permissions"},
	{[]error{middleware.ErrIdempotencyKeyReused}, http.StatusConflict, "idempotency key reused"},
	{[]error{middleware.ErrIdempotencyKeyInFlight}, http.StatusConflict, "request already in progress"},
	{[]error{domainproperty.ErrVersionConflict, domainbooking.ErrVersionConflict}, http.StatusConflict, "concurrent update, retry"},
	{[]error{domainbooking.ErrInvalidState, domainbooking.ErrQuoteMismatch, domainlease.ErrNotLeasable}, http.StatusConflict, "booking state does not allow this"},
	{[]error{domainbooking.ErrQuoteDrift}, http.StatusConflict, "quote drift"},
	{[]error{context.DeadlineExceeded}, http.StatusGatewayTimeout, "timeout"},
}

func statusFor(err error) (int, string) {
	for _, m := range errorTable {
		for _, target := range m.targets {
			if errors.Is(err, target) {
				return m.status, m.message
			}
		}
	}
	return http.StatusInternalServerError, "internal error"
}

func writeError(c *gin.Context, err error) {
	status, message := statusFor(err)
	body := gin.H{"error": message}
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		body["fields"] = verr.Fields
	case status != http.StatusInternalServerError:
		body["detail"] = err.Error()
	}
	_ = c.Error(err)
	c.JSON(status, body)
}

func writeDrift(c *gin.Context, res *dto.RecomputeResult) {
	c.JSON(http.StatusConflict, gin.H{
		"error":      "quote drift",
		"detail":     domainbooking.ErrQuoteDrift.Error(),
		"booking_id": res.BookingID,
		"drift":      res.Drift,
	})
}
