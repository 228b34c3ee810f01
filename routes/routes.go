package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/prodiversa/coop-api/handlers"
	"github.com/prodiversa/coop-api/services"
)

// SetupFunderRoutes sets up the read-only funder catalog routes.
func SetupFunderRoutes(rg *gin.RouterGroup, db *sql.DB) {
	h := handlers.NewFunderHandler(services.NewFunderService(db))

	rg.GET("/funders", h.ListFunders)
	rg.GET("/funders/:id", h.GetFunder)
	rg.GET("/funders/:id/templates", h.GetFunderTemplates)
}

// SetupProjectRoutes sets up project CRUD plus budget instantiation.
func SetupProjectRoutes(rg *gin.RouterGroup, db *sql.DB) {
	budgetService := services.NewBudgetService(db)
	projectHandler := handlers.NewProjectHandler(services.NewProjectService(db, budgetService))
	budgetHandler := handlers.NewBudgetHandler(budgetService)

	rg.GET("/projects", projectHandler.ListProjects)
	rg.POST("/projects", projectHandler.CreateProject)
	rg.GET("/projects/:id", projectHandler.GetProject)
	rg.PUT("/projects/:id", projectHandler.UpdateProject)
	rg.DELETE("/projects/:id", projectHandler.DeleteProject)

	// Budget routes
	rg.GET("/projects/:id/budget", budgetHandler.GetProjectBudget)
	rg.GET("/projects/:id/budget/summary", budgetHandler.GetBudgetSummary)
	rg.POST("/projects/:id/budget/initialize", budgetHandler.InitializeBudget)
	rg.PUT("/budget-lines/:lineId", budgetHandler.UpdateBudgetLine)
}

// SetupExpenseRoutes sets up the expense lifecycle routes.
func SetupExpenseRoutes(rg *gin.RouterGroup, db *sql.DB) {
	h := handlers.NewExpenseHandler(services.NewExpenseService(db))

	rg.GET("/projects/:id/expenses", h.ListExpenses)
	rg.POST("/projects/:id/expenses", h.CreateExpense)
	rg.GET("/projects/:id/expenses/summary", h.GetExpenseSummary)
	rg.GET("/projects/:id/expenses/budget-lines", h.GetBudgetLineBalances)

	rg.GET("/expenses/:expenseId", h.GetExpense)
	rg.PUT("/expenses/:expenseId", h.UpdateExpense)
	rg.DELETE("/expenses/:expenseId", h.DeleteExpense)

	// Lifecycle transitions
	rg.POST("/expenses/:expenseId/submit", h.SubmitForReview)
	rg.POST("/expenses/:expenseId/validate", h.ValidateExpense)
	rg.POST("/expenses/:expenseId/reject", h.RejectExpense)
	rg.POST("/expenses/:expenseId/justify", h.MarkAsJustified)
	rg.POST("/expenses/:expenseId/revert", h.RevertToDraft)

	rg.POST("/expenses/:expenseId/document", h.UploadDocument)
	rg.DELETE("/expenses/:expenseId/document", h.RemoveDocument)
}

// SetupTransferRoutes sets up the transfer lifecycle and reconciliation
// routes.
func SetupTransferRoutes(rg *gin.RouterGroup, db *sql.DB) {
	h := handlers.NewTransferHandler(services.NewTransferService(db))

	rg.GET("/projects/:id/transfers", h.ListTransfers)
	rg.POST("/projects/:id/transfers", h.CreateTransfer)
	rg.GET("/projects/:id/transfers/summary", h.GetTransferSummary)

	rg.GET("/transfers/:transferId", h.GetTransfer)
	rg.PUT("/transfers/:transferId", h.UpdateTransfer)
	rg.DELETE("/transfers/:transferId", h.DeleteTransfer)

	// Lifecycle transitions
	rg.POST("/transfers/:transferId/approve", h.ApproveTransfer)
	rg.POST("/transfers/:transferId/emit", h.ConfirmEmission)
	rg.POST("/transfers/:transferId/receive", h.ConfirmReception)
	rg.POST("/transfers/:transferId/close", h.CloseTransfer)
	rg.POST("/transfers/:transferId/revert", h.RevertTransfer)

	rg.POST("/transfers/:transferId/document/:phase", h.UploadDocument)
	rg.DELETE("/transfers/:transferId/document/:phase", h.RemoveDocument)
}

// SetupFundingRoutes sets up co-financing source and allocation routes.
func SetupFundingRoutes(rg *gin.RouterGroup, db *sql.DB) {
	h := handlers.NewFundingHandler(services.NewFundingService(db))

	rg.GET("/projects/:id/funding-sources", h.ListFundingSources)
	rg.POST("/projects/:id/funding-sources", h.CreateFundingSource)
	rg.DELETE("/funding-sources/:sourceId", h.DeleteFundingSource)
	rg.GET("/projects/:id/funding-summary", h.GetFundingSummary)

	rg.GET("/budget-lines/:lineId/funding", h.GetLineDistribution)
	rg.PUT("/budget-lines/:lineId/funding", h.UpdateLineDistribution)
}
