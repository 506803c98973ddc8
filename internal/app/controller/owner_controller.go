package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/ikkim/scanreview-backend/internal/app/service"
	apperrors "github.com/ikkim/scanreview-backend/internal/errors"
	"github.com/ikkim/scanreview-backend/internal/middleware"
	ws "github.com/ikkim/scanreview-backend/internal/websocket"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type OwnerController struct {
	checkService  service.CheckService
	exportService service.ExportService
	hub           *ws.Hub
	upgrader      gorillaws.Upgrader
}

func NewOwnerController(checkService service.CheckService, exportService service.ExportService, hub *ws.Hub, allowedOrigins []string) *OwnerController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &OwnerController{
		checkService:  checkService,
		exportService: exportService,
		hub:           hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return origins[r.Header.Get("Origin")]
			},
		},
	}
}

func parseCheckListQuery(c *gin.Context) (service.CheckListQuery, bool) {
	q := service.CheckListQuery{Status: c.Query("status")}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if raw := c.Query("business_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid business_id")
			return q, false
		}
		businessID := uint(id)
		q.BusinessID = &businessID
	}
	return q, true
}

// ListChecks lists checks issued for the caller's businesses.
// GET /api/v1/owner/checks?status=active|expired&business_id=&page=&page_size=
func (ctrl *OwnerController) ListChecks(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}
	q, ok := parseCheckListQuery(c)
	if !ok {
		return
	}

	checks, total, err := ctrl.checkService.ListChecks(c.Request.Context(), ownerID, q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    checks,
		"total":   total,
	})
}

// ExportChecks downloads the same listing as an xlsx workbook.
// GET /api/v1/owner/checks/export
func (ctrl *OwnerController) ExportChecks(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}
	q, ok := parseCheckListQuery(c)
	if !ok {
		return
	}

	data, err := ctrl.exportService.ExportChecks(c.Request.Context(), ownerID, q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("checks-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Feed upgrades to a WebSocket that streams review events for the caller's
// businesses.
// GET /api/v1/owner/ws?token=
func (ctrl *OwnerController) Feed(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := &ws.Client{
		Hub:           ctrl.hub,
		Conn:          &ws.Conn{Conn: conn},
		OwnerID:       ownerID,
		Send:          make(chan []byte, 256),
		LastResetTime: time.Now(),
	}
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"owner_id": ownerID,
	})
}
