package notifications

import (
	"net/http"

	"marketplace-app/internal/api/respond"
	"marketplace-app/internal/app/http/middleware"
	"marketplace-app/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc      *notify.Service
	hub      *notify.Hub
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

// NewHandler accepts websocket upgrades from allowedOrigin only; an empty
// origin allows any.
func NewHandler(svc *notify.Service, hub *notify.Hub, allowedOrigin string, log *logrus.Entry) *Handler {
	return &Handler{
		svc: svc,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
		log: log,
	}
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.UserID(c), c.Query("unread") == "true")
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *Handler) MarkRead(c *gin.Context) {
	if err := h.svc.MarkRead(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

// Live upgrades to a websocket that receives the user's notifications as
// they are enqueued.
func (h *Handler) Live(c *gin.Context) {
	userID := middleware.UserID(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("websocket upgrade failed")
		return
	}
	h.hub.Serve(userID, conn)
}
