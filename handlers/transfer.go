package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prodiversa/coop-api/middleware"
	"github.com/prodiversa/coop-api/models"
	"github.com/prodiversa/coop-api/services"
	"github.com/prodiversa/coop-api/utils"
)

type TransferHandler struct {
	Transfers *services.TransferService
}

func NewTransferHandler(transfers *services.TransferService) *TransferHandler {
	return &TransferHandler{Transfers: transfers}
}

func (h *TransferHandler) ListTransfers(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	transfers, err := h.Transfers.GetProjectTransfers(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}

func (h *TransferHandler) GetTransfer(c *gin.Context) {
	transferID, ok := pathID(c, "transferId")
	if !ok {
		return
	}

	transfer, err := h.Transfers.GetTransferByID(c.Request.Context(), transferID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transfer)
}

func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transfer, err := h.Transfers.CreateTransfer(c.Request.Context(), projectID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transfer)
}

func (h *TransferHandler) UpdateTransfer(c *gin.Context) {
	transferID, ok := pathID(c, "transferId")
	if !ok {
		return
	}

	var req models.UpdateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transfer, err := h.Transfers.UpdateTransfer(c.Request.Context(), transferID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transfer)
}

func (h *TransferHandler) DeleteTransfer(c *gin.Context) {
	transferID, ok := pathID(c, "transferId")
	if !ok {
		return
	}

	if err := h.Transfers.DeleteTransfer(c.Request.Context(), transferID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transfer deleted"})
}

func (h *TransferHandler) ApproveTransfer(c *gin.Context) {
	h.transition(c, h.Transfers.ApproveTransfer)
}

func (h *TransferHandler) ConfirmEmission(c *gin.Context) {
	h.transition(c, h.Transfers.ConfirmEmission)
}

func (h *TransferHandler) CloseTransfer(c *gin.Context) {
	h.transition(c, h.Transfers.CloseTransfer)
}

func (h *TransferHandler) RevertTransfer(c *gin.Context) {
	h.transition(c, h.Transfers.RevertToPreviousState)
}

func (h *TransferHandler) ConfirmReception(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	transferID, ok := pathID(c, "transferId")
	if !ok {
		return
	}

	var req models.ConfirmReceptionRequest
	_ = c.ShouldBindJSON(&req)

	transfer, err := h.Transfers.ConfirmReception(c.Request.Context(), transferID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transfer)
}

func (h *TransferHandler) transition(c *gin.Context, fn func(context.Context, int64) (*models.Transfer, error)) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	transferID, ok := pathID(c, "transferId")
	if !ok {
		return
	}

	transfer, err := fn(c.Request.Context(), transferID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transfer)
}

func (h *TransferHandler) GetTransferSummary(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.Transfers.GetTransferSummary(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// UploadDocument stores a transfer supporting document. The "phase" path
// segment selects the emission or reception slot.
func (h *TransferHandler) UploadDocument(c *gin.Context) {
	transferID, ok := pathID(c, "transferId")
	if !ok {
		return
	}

	phase := c.Param("phase")
	if phase != "emision" && phase != "recepcion" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phase must be emision or recepcion"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}

	path, err := utils.SaveDocument("transfers", file)
	if err != nil {
		respondError(c, err)
		return
	}

	var transfer *models.Transfer
	if phase == "emision" {
		transfer, err = h.Transfers.AttachEmissionDocument(c.Request.Context(), transferID, path)
	} else {
		transfer, err = h.Transfers.AttachReceptionDocument(c.Request.Context(), transferID, path)
	}
	if err != nil {
		utils.DeleteDocumentFile(path)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transfer)
}

func (h *TransferHandler) RemoveDocument(c *gin.Context) {
	transferID, ok := pathID(c, "transferId")
	if !ok {
		return
	}

	phase := c.Param("phase")
	var err error
	switch phase {
	case "emision":
		err = h.Transfers.RemoveEmissionDocument(c.Request.Context(), transferID)
	case "recepcion":
		err = h.Transfers.RemoveReceptionDocument(c.Request.Context(), transferID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phase must be emision or recepcion"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document removed"})
}
