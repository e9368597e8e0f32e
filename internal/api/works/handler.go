package works

import (
	"net/http"

	"marketplace-app/internal/api/respond"
	"marketplace-app/internal/app/http/middleware"
	"marketplace-app/internal/checkout"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	catalog *checkout.Service
	log     *logrus.Entry
}

func NewHandler(catalog *checkout.Service, log *logrus.Entry) *Handler {
	return &Handler{catalog: catalog, log: log}
}

type createArtworkRequest struct {
	Title     string          `json:"title" binding:"required"`
	Medium    string          `json:"medium"`
	Price     decimal.Decimal `json:"price"`
	IsDigital bool            `json:"is_digital"`
	AssetPath string          `json:"asset_path"`
}

func (h *Handler) CreateArtwork(c *gin.Context) {
	var body createArtworkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, "Invalid artwork payload")
		return
	}
	a, err := h.catalog.CreateArtwork(c.Request.Context(), middleware.UserID(c), checkout.NewArtwork{
		Title:     body.Title,
		Medium:    body.Medium,
		Price:     body.Price,
		IsDigital: body.IsDigital,
		AssetPath: body.AssetPath,
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}
