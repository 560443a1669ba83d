package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/properties"
	"rentdesk/internal/app/handlers/quotes"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/domain/pricing"
)

type PropertyHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h PropertyHandler) Get(c *gin.Context) {
	result, err := queries.Ask[properties.GetPropertyQuery, dto.Property](c.Request.Context(), h.Queries, properties.GetPropertyQuery{
		PropertyID: c.Param("id"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Quote(c *gin.Context) {
	rows := 0
	if raw := c.Query("rows"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": "rows must be an integer"})
			return
		}
		rows = n
	}
	result, err := queries.Ask[quotes.PreviewQuoteQuery, dto.Quote](c.Request.Context(), h.Queries, quotes.PreviewQuoteQuery{
		PropertyID: c.Param("id"),
		CheckIn:    c.Query("check_in"),
		CheckOut:   c.Query("check_out"),
		MaxRows:    rows,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Calendar(c *gin.Context) {
	result, err := queries.Ask[properties.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, properties.GetCalendarQuery{
		PropertyID: c.Param("id"),
		From:       c.Query("from"),
		To:         c.Query("to"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) UpdateOverrides(c *gin.Context) {
	var overrides pricing.Overrides
	if err := c.ShouldBindJSON(&overrides); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	if overrides == nil {
		overrides = pricing.Overrides{}
	}
	result, err := commands.Dispatch[properties.UpdateOverridesCommand, *dto.OverridesUpdate](c.Request.Context(), h.Commands, properties.UpdateOverridesCommand{
		PropertyID: c.Param("id"),
		Overrides:  overrides,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PropertyHTTP = PropertyHandler{}
