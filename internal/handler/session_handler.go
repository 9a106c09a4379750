// internal/handler/session_handler.go
package handler

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"escpos-emulator/internal/billing"
	"escpos-emulator/internal/config"
	"escpos-emulator/internal/escpos"
	"escpos-emulator/internal/model"
	"escpos-emulator/internal/repository"
	"escpos-emulator/internal/session"
	"escpos-emulator/internal/transport"
	"escpos-emulator/internal/utils"
)

// SessionHandler exposes the session lifecycle, feed, command-history and
// billing endpoints over HTTP, replacing the teacher's device CRUD/brand
// dispatch surface with the one this emulator actually needs.
type SessionHandler struct {
	registry  *session.Registry
	sessions  repository.SessionRepository
	history   repository.CommandHistoryRepository
	estimator *billing.Estimator
	emulator  config.EmulatorConfig
	logger    *utils.ServiceLogger

	pumpsMu sync.Mutex
	pumps   map[uuid.UUID]*transportPump
}

// transportPump owns the live internal/transport.ByteSource bound to a
// session, plus the cancellation for its read loop goroutine.
type transportPump struct {
	source transport.ByteSource
	cancel context.CancelFunc
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(
	registry *session.Registry,
	sessions repository.SessionRepository,
	history repository.CommandHistoryRepository,
	estimator *billing.Estimator,
	emulator config.EmulatorConfig,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		registry:  registry,
		sessions:  sessions,
		history:   history,
		estimator: estimator,
		emulator:  emulator,
		logger:    utils.NewServiceLogger(logger, "session-handler"),
		pumps:     make(map[uuid.UUID]*transportPump),
	}
}

// RegisterRoutes registers session-related routes
func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("", h.ListSessions)

		one := sessions.Group("/:session_id")
		{
			one.POST("/feed", h.Feed)
			one.GET("/commands", h.ListCommands)
			one.GET("/billing", h.GetBilling)
			one.DELETE("", h.CloseSession)
		}
	}
}

// CreateSessionRequest is the body of POST /sessions
type CreateSessionRequest struct {
	Transport string                 `json:"transport" binding:"required"`
	Config    map[string]interface{} `json:"config"`
}

// CreateSession opens a new emulated-printer session bound to a transport
// type and configuration, then tries to open a live
// internal/transport.ByteSource for it via startTransportPump. The
// session decodes whatever is fed to it via Feed or that byte source.
// @Summary Create a session
// @Description Opens a new emulated-printer session bound to a transport type
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body CreateSessionRequest true "Session creation request"
// @Success 201 {object} utils.APIResponse{data=model.Session} "Session created"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	transportType := model.TransportType(req.Transport)
	switch transportType {
	case model.TransportSerial, model.TransportUSB, model.TransportTCP:
	default:
		utils.ErrorResponse(c, http.StatusBadRequest, "Unsupported transport type", nil)
		return
	}

	if err := transport.ValidateConfig(transportType, req.Config); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid transport configuration", err)
		return
	}

	identity := escpos.Identity{
		Model:    h.emulator.Model,
		Firmware: h.emulator.Firmware,
	}

	sess := h.registry.Open(transportType, model.JSONObject(req.Config), identity, h.emulator.DefaultASBEnable)

	if err := h.sessions.Create(c.Request.Context(), &sess.Meta); err != nil {
		h.logger.Error("Failed to persist session", zap.Error(err), zap.String("session_id", sess.ID.String()))
	}

	h.startTransportPump(sess, transportType, req.Config)

	h.logger.Info("Session created", zap.String("session_id", sess.ID.String()))
	utils.SuccessResponse(c, http.StatusCreated, "Session created successfully", sess.Meta)
}

// startTransportPump opens a live internal/transport.ByteSource for the
// session's transport type/config and spawns a goroutine that feeds every
// chunk it reads into the session and writes every produced reply back out,
// per SPEC_FULL.md §3.2. A transport that fails to open (e.g. no such
// serial port on this host) only degrades the session to HTTP-fed-only —
// Session itself is transport-agnostic, so the session stays usable via
// the feed endpoint either way.
func (h *SessionHandler) startTransportPump(sess *session.Session, transportType model.TransportType, cfg map[string]interface{}) {
	source, err := transport.CreateTransport(transportType, cfg, h.logger.Logger)
	if err != nil {
		h.logger.Warn("Transport unavailable, session will rely on HTTP feed only",
			zap.Error(err), zap.String("session_id", sess.ID.String()))
		return
	}

	if reporting, ok := source.(transport.FaultReporting); ok {
		reporting.SetFaultSink(func(faultContext string, err error) {
			sess.RecordTransportFault(faultContext, err)
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := source.Open(ctx); err != nil {
		h.logger.Warn("Failed to open transport, session will rely on HTTP feed only",
			zap.Error(err), zap.String("session_id", sess.ID.String()))
		sess.RecordTransportFault("open", err)
		cancel()
		return
	}

	h.pumpsMu.Lock()
	h.pumps[sess.ID] = &transportPump{source: source, cancel: cancel}
	h.pumpsMu.Unlock()

	go h.runTransportPump(ctx, sess, source)
}

// runTransportPump is the transport's read loop: every chunk read is fed
// into the session's decoder, and every reply the decoder produces is
// written back out through the same ByteSource, satisfying spec.md §6's
// byte-source/reply-sink contract. It returns once the transport is closed
// or its context is cancelled.
func (h *SessionHandler) runTransportPump(ctx context.Context, sess *session.Session, source transport.ByteSource) {
	for {
		chunk, err := source.Read(ctx, 4096)
		if err != nil {
			h.logger.Info("Transport read loop ending",
				zap.String("session_id", sess.ID.String()), zap.Error(err))
			return
		}
		if len(chunk) == 0 {
			continue
		}

		_, replies := sess.Feed(chunk)
		for _, reply := range replies {
			if err := source.Write(ctx, reply); err != nil {
				h.logger.Warn("Failed to write reply to transport",
					zap.Error(err), zap.String("session_id", sess.ID.String()))
			}
		}
	}
}

// stopTransportPump cancels and closes the live transport bound to id, if
// any. Safe to call for sessions that never had a transport open.
func (h *SessionHandler) stopTransportPump(id uuid.UUID) {
	h.pumpsMu.Lock()
	p, ok := h.pumps[id]
	if ok {
		delete(h.pumps, id)
	}
	h.pumpsMu.Unlock()

	if !ok {
		return
	}

	p.cancel()
	if err := p.source.Close(); err != nil {
		h.logger.Warn("Failed to close transport", zap.Error(err), zap.String("session_id", id.String()))
	}
}

// ListSessions lists currently live sessions, or, when ?history=true is
// set, every persisted session (including closed ones) from the
// command-history store, paginated.
// @Summary List sessions
// @Description Lists every currently live session, or the full persisted history when history=true
// @Tags Sessions
// @Produce json
// @Param history query bool false "Return persisted sessions (including closed) instead of only live ones"
// @Param status query string false "Filter persisted sessions by status (only with history=true)"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(50)
// @Success 200 {object} utils.APIResponse{data=[]model.Session} "Sessions retrieved"
// @Router /sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	if history := c.Query("history"); history == "" || history == "false" {
		utils.SuccessResponse(c, http.StatusOK, "Sessions retrieved successfully", h.registry.List())
		return
	}

	filter := &repository.SessionFilter{Page: 1, PerPage: 50}
	if page := c.Query("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if perPage := c.Query("per_page"); perPage != "" {
		if pp, err := strconv.Atoi(perPage); err == nil && pp > 0 && pp <= 200 {
			filter.PerPage = pp
		}
	}
	if status := c.Query("status"); status != "" {
		s := model.SessionStatus(status)
		filter.Status = &s
	}

	sessions, total, err := h.sessions.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list persisted sessions", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list sessions", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Sessions retrieved successfully", gin.H{
		"sessions": sessions,
		"total":    total,
		"page":     filter.Page,
		"per_page": filter.PerPage,
	})
}

// FeedRequest is the JSON body accepted by POST /sessions/:session_id/feed
// when the caller isn't sending raw application/octet-stream bytes.
type FeedRequest struct {
	DataBase64 string `json:"data"`
}

// FeedResponse is returned by POST /sessions/:session_id/feed
type FeedResponse struct {
	Commands []escpos.CommandRecord `json:"commands"`
	Replies  []string               `json:"replies"`
}

// Feed runs one chunk of raw ESC/POS bytes through a session's decoder.
// @Summary Feed bytes to a session
// @Description Runs a raw byte chunk through the session's decoder and returns the commands/replies produced
// @Tags Sessions
// @Accept json,application/octet-stream
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} utils.APIResponse{data=FeedResponse} "Chunk decoded"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 404 {object} utils.APIResponse "Session not found"
// @Router /sessions/{session_id}/feed [post]
func (h *SessionHandler) Feed(c *gin.Context) {
	sess, ok := h.sessionFromParam(c)
	if !ok {
		return
	}

	chunk, err := h.readFeedBody(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid feed payload", err)
		return
	}

	records, replies := sess.Feed(chunk)

	replyHex := make([]string, len(replies))
	for i, reply := range replies {
		replyHex[i] = hex.EncodeToString(reply)
	}

	utils.SuccessResponse(c, http.StatusOK, "Chunk decoded", FeedResponse{
		Commands: records,
		Replies:  replyHex,
	})
}

func (h *SessionHandler) readFeedBody(c *gin.Context) ([]byte, error) {
	if c.ContentType() == "application/octet-stream" {
		return io.ReadAll(c.Request.Body)
	}

	var req FeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(req.DataBase64)
}

// ListCommands returns a session's paged command/reply history.
// @Summary List a session's command history
// @Description Returns paged command/reply history for a session
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(50)
// @Success 200 {object} utils.APIResponse "Command history retrieved"
// @Failure 404 {object} utils.APIResponse "Session not found"
// @Router /sessions/{session_id}/commands [get]
func (h *SessionHandler) ListCommands(c *gin.Context) {
	id, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	if _, found := h.registry.Get(id); !found {
		utils.ErrorResponse(c, http.StatusNotFound, "Session not found", nil)
		return
	}

	filter := &repository.CommandLogFilter{Page: 1, PerPage: 50}
	if page := c.Query("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if perPage := c.Query("per_page"); perPage != "" {
		if pp, err := strconv.Atoi(perPage); err == nil && pp > 0 && pp <= 200 {
			filter.PerPage = pp
		}
	}

	entries, total, err := h.history.ListBySession(c.Request.Context(), id, filter)
	if err != nil {
		h.logger.Error("Failed to list command history", zap.Error(err), zap.String("session_id", id.String()))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list command history", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Command history retrieved successfully", gin.H{
		"entries": entries,
		"total":   total,
		"page":    filter.Page,
		"per_page": filter.PerPage,
	})
}

// BillingResponse is returned by GET /sessions/:session_id/billing
type BillingResponse struct {
	SessionID string `json:"session_id"`
	Cost      string `json:"cost"`
	Currency  string `json:"currency"`
}

// GetBilling returns a session's running cost estimate.
// @Summary Get a session's billing estimate
// @Description Returns the running cost estimate accrued by a session's decoded commands
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} utils.APIResponse{data=BillingResponse} "Billing estimate retrieved"
// @Failure 404 {object} utils.APIResponse "Session not found"
// @Router /sessions/{session_id}/billing [get]
func (h *SessionHandler) GetBilling(c *gin.Context) {
	id, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	if _, found := h.registry.Get(id); !found {
		utils.ErrorResponse(c, http.StatusNotFound, "Session not found", nil)
		return
	}

	cost := h.estimator.CostSince(id)
	utils.SuccessResponse(c, http.StatusOK, "Billing estimate retrieved successfully", BillingResponse{
		SessionID: id.String(),
		Cost:      cost.StringFixed(4),
		Currency:  h.estimator.Currency(),
	})
}

// CloseSession closes a live session.
// @Summary Close a session
// @Description Closes a live session and releases its resources
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} utils.APIResponse "Session closed"
// @Failure 404 {object} utils.APIResponse "Session not found"
// @Router /sessions/{session_id} [delete]
func (h *SessionHandler) CloseSession(c *gin.Context) {
	id, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	if err := h.registry.Close(id); err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Session not found", err)
		return
	}

	h.stopTransportPump(id)

	if err := h.sessions.UpdateStatus(c.Request.Context(), id, model.SessionStatusClosed); err != nil {
		h.logger.Error("Failed to persist session close", zap.Error(err), zap.String("session_id", id.String()))
	}

	h.estimator.Forget(id)
	utils.SuccessResponse(c, http.StatusOK, "Session closed successfully", gin.H{"session_id": id.String()})
}

func (h *SessionHandler) parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid session ID", err)
		return uuid.UUID{}, false
	}
	return id, true
}

func (h *SessionHandler) sessionFromParam(c *gin.Context) (*session.Session, bool) {
	id, ok := h.parseSessionID(c)
	if !ok {
		return nil, false
	}

	sess, found := h.registry.Get(id)
	if !found {
		utils.ErrorResponse(c, http.StatusNotFound, "Session not found", nil)
		return nil, false
	}
	return sess, true
}
