package billing

import (
	"marketplace-app/internal/checkout"
	"marketplace-app/internal/earnings"

	"github.com/sirupsen/logrus"
)

type Handler struct {
	checkout *checkout.Service
	earnings *earnings.Clearance
	log      *logrus.Entry
}

func NewHandler(co *checkout.Service, earn *earnings.Clearance, log *logrus.Entry) *Handler {
	return &Handler{checkout: co, earnings: earn, log: log}
}
