package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dlms/dlms-backend/internal/middleware"
	"github.com/dlms/dlms-backend/internal/model"
	"github.com/dlms/dlms-backend/internal/response"
	"github.com/dlms/dlms-backend/internal/service"
	ws "github.com/dlms/dlms-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams autosave and submission over a WebSocket while a
// citizen takes an exam.
type WSHandler struct {
	delivery *service.ExamDeliveryService
	scoring  *service.ExamScoringService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	delivery *service.ExamDeliveryService,
	scoring *service.ExamScoringService,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		delivery: delivery,
		scoring:  scoring,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ExamStream godoc
// WS /ws/v1/exams/:exam_id/stream?token=
// Upgrades to WebSocket for answer autosave and submission.
func (h *WSHandler) ExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Ownership is checked before the upgrade so strangers get a plain 404.
	if _, err := h.delivery.State(c.Request.Context(), examID, claims.UserID); err != nil {
		fail(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("exam_id", examID.String()).
		Logger()
	wsLog.Info().Msg("Exam taker connected")

	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAutosave:
			h.handleAutosave(conn, wsLog, examID, claims.UserID, &msg)
		case ws.ActionSubmit:
			if h.handleSubmit(conn, wsLog, examID, claims, &msg) {
				_ = ws.CloseNormal(conn, "exam submitted")
				return
			}
		case ws.ActionPing:
			_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = ws.WriteError(conn, string(response.ErrValidation), "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) handleAutosave(conn *websocket.Conn, wsLog zerolog.Logger, examID uuid.UUID, userID int, msg *ws.Request) {
	if msg.Position == nil || msg.Answer == nil {
		_ = ws.WriteError(conn, string(response.ErrValidation), "position and answer are required")
		return
	}

	err := h.delivery.Autosave(context.Background(), examID, userID, *msg.Position, *msg.Answer)
	if err != nil {
		h.writeServiceError(conn, wsLog, err)
		return
	}

	_ = ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, Position: *msg.Position})
}

// handleSubmit grades the autosaved answers. It reports whether the
// connection should close.
func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, examID uuid.UUID, claims *service.Claims, msg *ws.Request) bool {
	userName := msg.UserName
	if userName == "" {
		userName = claims.Name
	}

	lang := model.Language(msg.Language)
	if lang != "" && lang != model.LanguageEnglish && lang != model.LanguageAmharic {
		_ = ws.WriteError(conn, string(response.ErrValidation), "language must be en or am")
		return false
	}

	result, err := h.scoring.SubmitAutosaved(context.Background(), examID, claims.UserID, userName, lang)
	if err != nil {
		h.writeServiceError(conn, wsLog, err)
		return errors.Is(err, service.ErrAlreadySubmitted)
	}

	_ = ws.WriteTyped(conn, ws.GradedResponse{Event: ws.EventGraded, Result: result.Summary()})
	return true
}

func (h *WSHandler) writeServiceError(conn *websocket.Conn, wsLog zerolog.Logger, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		_ = ws.WriteError(conn, string(response.ErrValidation), verr.Error())
		return
	}

	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		wsLog.Error().Err(err).Msg("Exam stream action failed")
	}
	_ = ws.WriteError(conn, string(code), response.GetMessage(code))
}
