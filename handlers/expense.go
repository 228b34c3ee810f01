package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prodiversa/coop-api/middleware"
	"github.com/prodiversa/coop-api/models"
	"github.com/prodiversa/coop-api/services"
	"github.com/prodiversa/coop-api/utils"
)

type ExpenseHandler struct {
	Expenses *services.ExpenseService
}

func NewExpenseHandler(expenses *services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{Expenses: expenses}
}

func parseExpenseFilters(c *gin.Context) *models.ExpenseFilters {
	filters := &models.ExpenseFilters{
		Estado:    c.Query("estado"),
		Ubicacion: c.Query("ubicacion"),
	}
	if v := c.Query("budget_line_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.BudgetLineID = id
		}
	}
	if v := c.Query("fecha_desde"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filters.FechaDesde = &t
		}
	}
	if v := c.Query("fecha_hasta"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filters.FechaHasta = &t
		}
	}
	return filters
}

func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	expenses, err := h.Expenses.GetProjectExpenses(c.Request.Context(), projectID, parseExpenseFilters(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	expenseID, ok := pathID(c, "expenseId")
	if !ok {
		return
	}

	expense, err := h.Expenses.GetExpenseByID(c.Request.Context(), expenseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.Expenses.CreateExpense(c.Request.Context(), projectID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	expenseID, ok := pathID(c, "expenseId")
	if !ok {
		return
	}

	var req models.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.Expenses.UpdateExpense(c.Request.Context(), expenseID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	expenseID, ok := pathID(c, "expenseId")
	if !ok {
		return
	}

	if err := h.Expenses.DeleteExpense(c.Request.Context(), expenseID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted"})
}

func (h *ExpenseHandler) SubmitForReview(c *gin.Context) {
	h.transition(c, h.Expenses.SubmitForReview)
}

func (h *ExpenseHandler) ValidateExpense(c *gin.Context) {
	h.transition(c, h.Expenses.ValidateExpense)
}

func (h *ExpenseHandler) MarkAsJustified(c *gin.Context) {
	h.transition(c, h.Expenses.MarkAsJustified)
}

func (h *ExpenseHandler) RevertToDraft(c *gin.Context) {
	h.transition(c, h.Expenses.RevertToDraft)
}

func (h *ExpenseHandler) RejectExpense(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	expenseID, ok := pathID(c, "expenseId")
	if !ok {
		return
	}

	var req struct {
		Observaciones string `json:"observaciones"`
	}
	_ = c.ShouldBindJSON(&req)

	expense, err := h.Expenses.RejectExpense(c.Request.Context(), expenseID, req.Observaciones)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *ExpenseHandler) transition(c *gin.Context, fn func(context.Context, int64) (*models.Expense, error)) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	expenseID, ok := pathID(c, "expenseId")
	if !ok {
		return
	}

	expense, err := fn(c.Request.Context(), expenseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *ExpenseHandler) GetExpenseSummary(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.Expenses.GetExpenseSummary(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ExpenseHandler) GetBudgetLineBalances(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	balances, err := h.Expenses.GetBudgetLinesWithBalance(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget_lines": balances})
}

// UploadDocument stores the invoice file and records its path on the
// expense.
func (h *ExpenseHandler) UploadDocument(c *gin.Context) {
	expenseID, ok := pathID(c, "expenseId")
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}

	path, err := utils.SaveDocument("expenses", file)
	if err != nil {
		respondError(c, err)
		return
	}

	expense, err := h.Expenses.AttachDocument(c.Request.Context(), expenseID, path)
	if err != nil {
		utils.DeleteDocumentFile(path)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *ExpenseHandler) RemoveDocument(c *gin.Context) {
	expenseID, ok := pathID(c, "expenseId")
	if !ok {
		return
	}

	if err := h.Expenses.RemoveDocument(c.Request.Context(), expenseID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document removed"})
}
