package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prodiversa/coop-api/models"
	"github.com/prodiversa/coop-api/services"
)

type FundingHandler struct {
	Funding *services.FundingService
}

func NewFundingHandler(funding *services.FundingService) *FundingHandler {
	return &FundingHandler{Funding: funding}
}

func (h *FundingHandler) ListFundingSources(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	sources, err := h.Funding.GetProjectFundingSources(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"funding_sources": sources})
}

func (h *FundingHandler) CreateFundingSource(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.CreateFundingSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	source, err := h.Funding.CreateFundingSource(c.Request.Context(), projectID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, source)
}

func (h *FundingHandler) DeleteFundingSource(c *gin.Context) {
	sourceID, ok := pathID(c, "sourceId")
	if !ok {
		return
	}

	if err := h.Funding.DeleteFundingSource(c.Request.Context(), sourceID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Funding source deleted"})
}

func (h *FundingHandler) GetLineDistribution(c *gin.Context) {
	lineID, ok := pathID(c, "lineId")
	if !ok {
		return
	}

	entries, err := h.Funding.GetLineDistribution(c.Request.Context(), lineID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"allocations": entries})
}

func (h *FundingHandler) UpdateLineDistribution(c *gin.Context) {
	lineID, ok := pathID(c, "lineId")
	if !ok {
		return
	}

	var req models.UpdateDistributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries, err := h.Funding.UpdateLineDistribution(c.Request.Context(), lineID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"allocations": entries})
}

func (h *FundingHandler) GetFundingSummary(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.Funding.GetFundingSummary(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"funding_summary": summary})
}
