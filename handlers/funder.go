package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prodiversa/coop-api/services"
)

type FunderHandler struct {
	Funders *services.FunderService
}

func NewFunderHandler(funders *services.FunderService) *FunderHandler {
	return &FunderHandler{Funders: funders}
}

func (h *FunderHandler) ListFunders(c *gin.Context) {
	funders, err := h.Funders.GetAllFunders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"funders": funders})
}

func (h *FunderHandler) GetFunder(c *gin.Context) {
	funderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	funder, err := h.Funders.GetFunderByID(c.Request.Context(), funderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, funder)
}

// GetFunderTemplates returns the funder's chart-of-accounts template
// forest in catalog order.
func (h *FunderHandler) GetFunderTemplates(c *gin.Context) {
	funderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	templates, err := h.Funders.GetFunderTemplates(c.Request.Context(), funderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}
