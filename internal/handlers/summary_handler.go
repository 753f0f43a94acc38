package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"anggaran/internal/services"
)

// SummaryHandler handles monthly cash flow summary requests.
type SummaryHandler struct {
	summaryService services.SummaryServicer
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaryService services.SummaryServicer) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// GetMonthlySummary returns the monthly cash flow summary
// @Summary     Monthly cash flow summary
// @Description Get per-project and overall income/expense totals for a month across non-archived projects
// @Tags        summary
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month in YYYY-MM format, defaults to the current month"
// @Success     200 {object} services.MonthlySummary "Monthly summary"
// @Failure     400 {object} ErrorResponse "Invalid month format"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /summary/monthly [get]
func (h *SummaryHandler) GetMonthlySummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.summaryService.SummarizeByMonth(userID, c.Query("month"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
