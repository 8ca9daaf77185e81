package http

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"dispatch-service/internal/client"
	"dispatch-service/internal/http/middleware"
	"dispatch-service/internal/model"
	"dispatch-service/internal/repository"
	"dispatch-service/internal/rowstore"
	"dispatch-service/internal/service"
)

type Handler struct {
	ticketService *service.TicketService
	photoService  *service.PhotoService
	ledgerService *service.LedgerService
	syncService   *service.SyncService
	media         client.BlobStore
	log           zerolog.Logger
}

func NewHandler(
	ticketService *service.TicketService,
	photoService *service.PhotoService,
	ledgerService *service.LedgerService,
	syncService *service.SyncService,
	media client.BlobStore,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		ticketService: ticketService,
		photoService:  photoService,
		ledgerService: ledgerService,
		syncService:   syncService,
		media:         media,
		log:           log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := r.Group("/api")
	api.Use(authMiddleware)

	api.POST("/tickets", h.ticketAction)
	api.GET("/tickets", h.listTickets)
	api.GET("/tickets/:id", h.getTicket)
	api.GET("/tickets/:id/photos", h.listTicketPhotos)

	api.GET("/jobs/:id", h.getJob)
	api.POST("/jobs/:id/recalculate", h.recalculateJob)
	api.POST("/jobs/:id/sync", h.syncJob)
	api.POST("/sync/jobnimbus", h.syncAllPending)

	api.POST("/photos/upload", h.uploadPhoto)
}

type gpsPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (g *gpsPayload) toModel() *model.GPSLocation {
	if g == nil {
		return nil
	}
	return &model.GPSLocation{
		Latitude:   g.Latitude,
		Longitude:  g.Longitude,
		CapturedAt: time.Now().UTC(),
	}
}

// ticketActionRequest is the flat action-keyed payload for every ticket
// operation. Which fields matter depends on the action.
type ticketActionRequest struct {
	Action string `json:"action" binding:"required"`

	TicketID   string `json:"ticket_id"`
	TicketType string `json:"ticket_type"`

	JobID               string               `json:"job_id"`
	JobName             string               `json:"job_name"`
	JobAddress          string               `json:"job_address"`
	City                string               `json:"city"`
	State               string               `json:"state"`
	Zip                 string               `json:"zip"`
	CustomerName        string               `json:"customer_name"`
	CustomerPhone       string               `json:"customer_phone"`
	CustomerEmail       string               `json:"customer_email"`
	ProjectManager      string               `json:"project_manager"`
	Materials           []model.MaterialItem `json:"materials"`
	RequestedDate       string               `json:"requested_date"`
	RequestedTime       string               `json:"requested_time"`
	Priority            string               `json:"priority"`
	SpecialInstructions string               `json:"special_instructions"`
	BillingID           string               `json:"billing_id"`

	DriverID      string `json:"driver_id"`
	DriverName    string `json:"driver_name"`
	DriverPhone   string `json:"driver_phone"`
	Vehicle       string `json:"vehicle"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`

	PulledBy   string      `json:"pulled_by"`
	VerifiedBy string      `json:"verified_by"`
	SignedBy   string      `json:"signed_by"`
	Signature  string      `json:"signature"`
	GPS        *gpsPayload `json:"gps"`
	Notes      string      `json:"notes"`
	Reason     string      `json:"reason"`

	ReturnReason      string               `json:"return_reason"`
	PickupReason      string               `json:"pickup_reason"`
	RelatedTicketID   string               `json:"related_ticket_id"`
	ReturnedMaterials []model.MaterialItem `json:"returned_materials"`
	Condition         string               `json:"condition"`

	PhotoType string   `json:"photo_type"`
	PhotoURL  string   `json:"photo_url"`
	PhotoURLs []string `json:"photo_urls"`

	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	PreviousQty float64 `json:"previous_qty"`
	NewQty      float64 `json:"new_qty"`
}

func (h *Handler) ticketAction(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing principal"))
		return
	}

	var req ticketActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}

	ctx := c.Request.Context()

	switch req.Action {
	case "create":
		ticket, err := h.ticketService.CreateTicket(ctx, principal, service.CreateTicketInput{
			TicketType:          req.TicketType,
			JobID:               req.JobID,
			JobName:             req.JobName,
			JobAddress:          req.JobAddress,
			City:                req.City,
			State:               req.State,
			Zip:                 req.Zip,
			CustomerName:        req.CustomerName,
			CustomerPhone:       req.CustomerPhone,
			CustomerEmail:       req.CustomerEmail,
			ProjectManager:      req.ProjectManager,
			Materials:           req.Materials,
			RequestedDate:       req.RequestedDate,
			RequestedTime:       req.RequestedTime,
			Priority:            req.Priority,
			SpecialInstructions: req.SpecialInstructions,
			ReturnReason:        req.ReturnReason,
			PickupReason:        req.PickupReason,
			RelatedTicketID:     req.RelatedTicketID,
			BillingID:           req.BillingID,
		})
		h.respondTicket(c, http.StatusCreated, ticket, err)

	case "assign-driver":
		ticket, err := h.ticketService.AssignDriver(ctx, principal, service.AssignDriverInput{
			TicketID:      req.TicketID,
			DriverID:      req.DriverID,
			DriverName:    req.DriverName,
			DriverPhone:   req.DriverPhone,
			Vehicle:       req.Vehicle,
			ScheduledDate: req.ScheduledDate,
			ScheduledTime: req.ScheduledTime,
			GPS:           req.GPS.toModel(),
		})
		h.respondTicket(c, http.StatusOK, ticket, err)

	case "pull-materials":
		ticket, err := h.ticketService.PullMaterials(ctx, principal, req.TicketID, req.PulledBy)
		h.respondTicket(c, http.StatusOK, ticket, err)

	case "verify-load":
		ticket, err := h.ticketService.VerifyLoad(ctx, principal, req.TicketID, req.VerifiedBy, req.GPS.toModel())
		h.respondTicket(c, http.StatusOK, ticket, err)

	case "start-delivery":
		ticket, err := h.ticketService.StartDelivery(ctx, principal, req.TicketID)
		h.respondTicket(c, http.StatusOK, ticket, err)

	case "mark-arrived":
		ticket, err := h.ticketService.MarkArrived(ctx, principal, req.TicketID, req.GPS.toModel())
		h.respondTicket(c, http.StatusOK, ticket, err)

	case "complete-delivery":
		ticket, err := h.ticketService.CompleteDelivery(ctx, principal, req.TicketID, req.Notes)
		h.respondTicket(c, http.StatusOK, ticket, err)

	case "capture-proof":
		signatureURL, err := h.resolveSignature(c, req)
		if err != nil {
			h.handleError(c, err)
			return
		}
		ticket, err := h.ticketService.CaptureProof(ctx, principal, req.TicketID, signatureURL, req.SignedBy)
		h.respondTicket(c, http.StatusOK, ticket, err)

	case "upload-qc":
		photos, err := h.photoService.UploadQCPhotos(ctx, principal, req.TicketID, req.PhotoURLs)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, successResponse("photos", photos))

	case "complete-ticket":
		ticket, err := h.ticketService.CompleteTicket(ctx, principal, req.TicketID)
		h.respondTicket(c, http.StatusOK, ticket, err)

	case "complete-pickup":
		ticket, err := h.ticketService.CompletePickup(ctx, principal, req.TicketID, req.GPS.toModel(), req.Notes)
		h.respondTicket(c, http.StatusOK, ticket, err)

	case "process-return":
		ticket, err := h.ticketService.ProcessReturn(ctx, principal, service.ProcessReturnInput{
			TicketID:          req.TicketID,
			ReturnedMaterials: req.ReturnedMaterials,
			Condition:         req.Condition,
			GPS:               req.GPS.toModel(),
		})
		h.respondTicket(c, http.StatusOK, ticket, err)

	case "cancel":
		ticket, err := h.ticketService.CancelTicket(ctx, principal, req.TicketID, req.Reason)
		h.respondTicket(c, http.StatusOK, ticket, err)

	case "stock-adjustment":
		adj, err := h.ticketService.CreateStockAdjustment(ctx, principal, service.StockAdjustmentInput{
			ProductID:   req.ProductID,
			ProductName: req.ProductName,
			PreviousQty: req.PreviousQty,
			NewQty:      req.NewQty,
			Reason:      req.Reason,
			TicketID:    req.TicketID,
		})
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, successResponse("adjustment", adj))

	case "add-photo":
		photo, err := h.photoService.AddPhoto(ctx, principal, service.AddPhotoInput{
			TicketID:  req.TicketID,
			PhotoType: req.PhotoType,
			URL:       req.PhotoURL,
			Notes:     req.Notes,
		})
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, successResponse("photo", photo))

	default:
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", fmt.Sprintf("unknown action %q", req.Action)))
	}
}

// resolveSignature stores an inline data-URI signature in the blob store and
// returns its URL; a plain URL passes through.
func (h *Handler) resolveSignature(c *gin.Context, req ticketActionRequest) (string, error) {
	sig := strings.TrimSpace(req.Signature)
	if !strings.HasPrefix(sig, "data:") {
		return sig, nil
	}
	if h.media == nil {
		return "", fmt.Errorf("%w: inline signatures need media storage configured", service.ErrValidation)
	}

	comma := strings.Index(sig, ",")
	if comma < 0 {
		return "", fmt.Errorf("%w: malformed signature data uri", service.ErrValidation)
	}
	data, err := base64.StdEncoding.DecodeString(sig[comma+1:])
	if err != nil {
		return "", fmt.Errorf("%w: signature is not valid base64", service.ErrValidation)
	}

	name := fmt.Sprintf("signatures/%s-%d.png", req.TicketID, time.Now().UnixNano())
	url, err := h.media.Put(c.Request.Context(), name, "image/png", data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", rowstore.ErrUnavailable, err)
	}
	return url, nil
}

func (h *Handler) respondTicket(c *gin.Context, status int, ticket *model.Ticket, err error) {
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(status, successResponse("ticket", ticket))
}

func (h *Handler) getTicket(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", "invalid ticket id"))
		return
	}

	ticket, err := h.ticketService.GetTicket(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("ticket", ticket))
}

func (h *Handler) listTickets(c *gin.Context) {
	filter := repository.TicketListFilter{}

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		ts := model.TicketStatus(strings.ToLower(status))
		filter.Status = &ts
	}
	if rawType := strings.TrimSpace(c.Query("ticket_type")); rawType != "" {
		tt, ok := model.ParseTicketType(rawType)
		if !ok {
			c.JSON(http.StatusBadRequest, errorResponse("validation_error", "unknown ticket type"))
			return
		}
		filter.TicketType = &tt
	}
	if driverID := strings.TrimSpace(c.Query("driver_id")); driverID != "" {
		filter.DriverID = &driverID
	}
	if pm := strings.TrimSpace(c.Query("project_manager")); pm != "" {
		filter.ProjectManager = &pm
	}
	if date := strings.TrimSpace(c.Query("date")); date != "" {
		filter.Date = &date
	}
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("validation_error", "invalid limit"))
			return
		}
		filter.Limit = limit
	}

	tickets, err := h.ticketService.ListTickets(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("tickets", tickets))
}

func (h *Handler) listTicketPhotos(c *gin.Context) {
	photos, err := h.photoService.ListByTicket(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("photos", photos))
}

func (h *Handler) getJob(c *gin.Context) {
	job, err := h.ledgerService.GetJob(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("job", job))
}

func (h *Handler) recalculateJob(c *gin.Context) {
	job, err := h.ledgerService.RebuildJob(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("job", job))
}

func (h *Handler) syncJob(c *gin.Context) {
	result, err := h.syncService.SyncJob(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("result", result))
}

func (h *Handler) syncAllPending(c *gin.Context) {
	results, err := h.syncService.SyncAllPending(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("results", results))
}

func (h *Handler) uploadPhoto(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing principal"))
		return
	}
	if h.media == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse("upstream_unavailable", "media storage is not configured"))
		return
	}

	ticketID := strings.TrimSpace(c.PostForm("ticket_id"))
	photoType := strings.TrimSpace(c.PostForm("photo_type"))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", "file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", "could not read file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", "could not read file"))
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := fmt.Sprintf("tickets/%s/%d-%s", ticketID, time.Now().UnixNano(), filepath.Base(fileHeader.Filename))

	url, err := h.media.Put(c.Request.Context(), name, contentType, data)
	if err != nil {
		h.log.Error().Err(err).Str("ticket_id", ticketID).Msg("photo upload failed")
		c.JSON(http.StatusBadGateway, errorResponse("upstream_unavailable", "photo storage failed"))
		return
	}

	photo, err := h.photoService.AddPhoto(c.Request.Context(), principal, service.AddPhotoInput{
		TicketID:  ticketID,
		PhotoType: photoType,
		URL:       url,
		Notes:     strings.TrimSpace(c.PostForm("notes")),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("photo", photo))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse("permission_denied", err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, errorResponse("invalid_transition", err.Error()))
	case errors.Is(err, rowstore.ErrUnavailable):
		h.log.Error().Err(err).Msg("row store unavailable")
		c.JSON(http.StatusBadGateway, errorResponse("upstream_unavailable", err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal", "internal error"))
	}
}

func successResponse(key string, data interface{}) gin.H {
	return gin.H{
		"success": true,
		key:       data,
	}
}

func errorResponse(kind, message string) gin.H {
	return gin.H{
		"success": false,
		"kind":    kind,
		"error":   message,
	}
}
