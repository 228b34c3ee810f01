package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prodiversa/coop-api/models"
	"github.com/prodiversa/coop-api/services"
)

type BudgetHandler struct {
	Budget *services.BudgetService
}

func NewBudgetHandler(budget *services.BudgetService) *BudgetHandler {
	return &BudgetHandler{Budget: budget}
}

// GetProjectBudget returns the raw budget lines, template order.
func (h *BudgetHandler) GetProjectBudget(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	lines, err := h.Budget.GetProjectBudget(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget_lines": lines})
}

// GetBudgetSummary returns lines with derived fields, totals, category
// subtotals and funder-rule alerts.
func (h *BudgetHandler) GetBudgetSummary(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.Budget.GetProjectBudgetSummary(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// InitializeBudget materializes the budget lines from the project's
// declared funder. Idempotent: a project with lines is left untouched.
func (h *BudgetHandler) InitializeBudget(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	lines, err := h.Budget.InitializeBudgetFromProject(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget_lines": lines})
}

func (h *BudgetHandler) UpdateBudgetLine(c *gin.Context) {
	lineID, ok := pathID(c, "lineId")
	if !ok {
		return
	}

	var req models.UpdateBudgetLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	line, err := h.Budget.UpdateBudgetLine(c.Request.Context(), lineID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}
