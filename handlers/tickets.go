package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"linkmonitor/db"
	"linkmonitor/middleware"
	"linkmonitor/models"
)

func ListTickets(c *gin.Context) {
	store := db.NewTicketStore(db.GetDB())
	tickets, err := store.List(c.Request.Context(), middleware.ScopeFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, tickets)
}

func GetTicketByNo(c *gin.Context) {
	store := db.NewTicketStore(db.GetDB())
	ticket, err := store.GetByTicketNo(c.Request.Context(), middleware.ScopeFrom(c), c.Param("ticketNo"))
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"message": "Ticket not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// UpdateTicketByNo applies a workflow update: missing fields keep their
// current values, the snapshot is appended to the ticket's update log, and
// Status may progress. The monitoring engine reads Status but never writes
// it, so this is the only way a ticket moves past Pending.
func UpdateTicketByNo(c *gin.Context) {
	var req struct {
		ProblemCode string `json:"ProblemCode"`
		Status      string `json:"Status"`
		RFO         string `json:"RFO"`
		AssignedFor string `json:"AssignedFor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	scope := middleware.ScopeFrom(c)
	store := db.NewTicketStore(db.GetDB())

	ticket, err := store.GetByTicketNo(c.Request.Context(), scope, c.Param("ticketNo"))
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"message": "Ticket not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}

	upd := models.TicketUpdate{
		ProblemCode:    orCurrent(req.ProblemCode, ticket.ProblemCode),
		Status:         orCurrent(req.Status, ticket.Status),
		RFO:            orCurrent(req.RFO, ticket.RFO),
		AssignedFor:    orCurrent(req.AssignedFor, ticket.AssignedFor),
		AssignedBy:     orCurrent(req.AssignedFor, ticket.AssignedBy),
		LastUpdateBy:   updatedBy(c),
		LastUpdateDate: time.Now().Format(models.DisplayTimeFormat),
	}

	if err := store.ApplyWorkflowUpdate(c.Request.Context(), ticket.TicketNo, upd); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}

	ticket, err = store.GetByTicketNo(c.Request.Context(), scope, ticket.TicketNo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ticket successfully updated", "ticket": ticket})
}

// GetLatestTicket returns the most recently numbered ticket in scope.
func GetLatestTicket(c *gin.Context) {
	store := db.NewTicketStore(db.GetDB())
	ticket, err := store.FindLatest(c.Request.Context(), middleware.ScopeFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "No tickets found"})
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func GetOpenTicketsCount(c *gin.Context) {
	store := db.NewTicketStore(db.GetDB())
	n, err := store.CountByStatus(c.Request.Context(), middleware.ScopeFrom(c), "Closed", true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"openTicketsCount": n})
}

func GetPendingTicketsCount(c *gin.Context) {
	store := db.NewTicketStore(db.GetDB())
	n, err := store.CountByStatus(c.Request.Context(), middleware.ScopeFrom(c), "Pending", false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pendingTicketsCount": n})
}

// trendDays is the span of the ticket-volume trend, inclusive of today.
const trendDays = 15

// GetTicketsCountByDate returns per-day ticket creation counts for the last
// 15 days, zero-filled so every day in the range is present.
func GetTicketsCountByDate(c *gin.Context) {
	start := time.Now().AddDate(0, 0, -trendDays)

	store := db.NewTicketStore(db.GetDB())
	counts, err := store.CountByDay(c.Request.Context(), middleware.ScopeFrom(c), start)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, fillTrend(start, trendDays, counts))
}

// fillTrend expands sparse per-day counts into a contiguous day range,
// start through start+days inclusive.
func fillTrend(start time.Time, days int, counts map[string]int) []models.TicketDayCount {
	trend := make([]models.TicketDayCount, 0, days+1)
	for i := 0; i <= days; i++ {
		day := start.AddDate(0, 0, i).Format(models.DisplayDateFormat)
		trend = append(trend, models.TicketDayCount{Date: day, Count: counts[day]})
	}
	return trend
}

func orCurrent(v, current string) string {
	if v == "" {
		return current
	}
	return v
}

func updatedBy(c *gin.Context) string {
	if email, ok := c.Get("userEmail"); ok {
		if s, ok := email.(string); ok && s != "" {
			return s
		}
	}
	return "N/A"
}
