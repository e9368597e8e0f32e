package commissions

import (
	"errors"
	"io"
	"net/http"
	"time"

	"marketplace-app/internal/api/respond"
	"marketplace-app/internal/app/http/middleware"
	"marketplace-app/internal/commission"
	"marketplace-app/internal/domain/commissions"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc *commission.Service
	log *logrus.Entry
}

func NewHandler(svc *commission.Service, log *logrus.Entry) *Handler {
	return &Handler{svc: svc, log: log}
}

type createCommissionRequest struct {
	ArtistID    *uint           `json:"artist_id"`
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	BudgetMin   decimal.Decimal `json:"budget_min"`
	BudgetMax   decimal.Decimal `json:"budget_max"`
	Deadline    *time.Time      `json:"deadline"`
}

func (h *Handler) CreateCommission(c *gin.Context) {
	var req createCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid commission payload")
		return
	}
	cm, err := h.svc.CreateCommission(c.Request.Context(), middleware.UserID(c), commission.NewCommission{
		ArtistID:    req.ArtistID,
		Title:       req.Title,
		Description: req.Description,
		BudgetMin:   req.BudgetMin,
		BudgetMax:   req.BudgetMax,
		Deadline:    req.Deadline,
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

func (h *Handler) GetCommission(c *gin.Context) {
	cm, err := h.svc.GetCommission(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cm)
}

func (h *Handler) CancelCommission(c *gin.Context) {
	if err := h.svc.CancelCommission(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": commissions.CommissionCancelled})
}

type proposalRequest struct {
	ProposalText        string          `json:"proposal_text" binding:"required"`
	ProposedPrice       decimal.Decimal `json:"proposed_price"`
	EstimatedCompletion *time.Time      `json:"estimated_completion"`
}

func (h *Handler) SubmitProposal(c *gin.Context) {
	var req proposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid proposal payload")
		return
	}
	p, err := h.svc.SubmitProposal(c.Request.Context(), middleware.UserID(c), c.Param("id"), commission.NewProposal{
		Text:                req.ProposalText,
		Price:               req.ProposedPrice,
		EstimatedCompletion: req.EstimatedCompletion,
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListProposals(c *gin.Context) {
	list, err := h.svc.ListProposals(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": list})
}

func (h *Handler) AcceptProposal(c *gin.Context) {
	project, err := h.svc.AcceptProposal(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

func (h *Handler) RejectProposal(c *gin.Context) {
	if err := h.svc.RejectProposal(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": commissions.ProposalRejected})
}

func (h *Handler) GetProject(c *gin.Context) {
	p, err := h.svc.GetProject(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) StartProject(c *gin.Context) {
	p, err := h.svc.StartProject(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) CancelProject(c *gin.Context) {
	p, err := h.svc.CancelProject(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) ListUpdates(c *gin.Context) {
	list, err := h.svc.ListUpdates(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updates": list})
}

type createUpdateRequest struct {
	UpdateType  commissions.UpdateType `json:"update_type" binding:"required"`
	Description string                 `json:"description"`
	Files       []string               `json:"files"`
}

func (h *Handler) CreateUpdate(c *gin.Context) {
	var req createUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid update payload")
		return
	}
	u, err := h.svc.CreateUpdate(c.Request.Context(), middleware.UserID(c), c.Param("id"), commission.NewUpdate{
		Type:        req.UpdateType,
		Description: req.Description,
		Files:       req.Files,
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

type submitUpdateRequest struct {
	Description string   `json:"description"`
	Files       []string `json:"files"`
}

// SubmitUpdate accepts an empty body; content fields replace the draft's when
// present.
func (h *Handler) SubmitUpdate(c *gin.Context) {
	var req submitUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.BadRequest(c, "Invalid update payload")
		return
	}
	u, err := h.svc.SubmitUpdate(c.Request.Context(), middleware.UserID(c), c.Param("id"), commission.UpdateContent{
		Description: req.Description,
		Files:       req.Files,
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type reviewRequest struct {
	Decision commission.Decision `json:"decision" binding:"required"`
	Feedback string              `json:"feedback"`
}

func (h *Handler) ReviewUpdate(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid review payload")
		return
	}
	res, err := h.svc.ReviewUpdate(c.Request.Context(), middleware.UserID(c), c.Param("id"), commission.Review{
		Decision: req.Decision,
		Feedback: req.Feedback,
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
