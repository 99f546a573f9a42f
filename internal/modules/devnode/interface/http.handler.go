package transport

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"metagraphOps/internal/modules/devnode/application/port"
	"metagraphOps/internal/modules/devnode/application/usecase"
	"metagraphOps/internal/modules/devnode/infrastructure"
	"metagraphOps/internal/shared/auth"
	"metagraphOps/internal/shared/events"
	"metagraphOps/internal/shared/httputil"
)

const maxUpdateBody = 1 << 20

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler serves the node endpoints the snapshot fetcher and the sender talk to,
// plus a websocket feed of ledger events.
type Handler struct {
	ledger    *usecase.LedgerUseCase
	hub       *infrastructure.Hub
	validator *auth.JWTValidator
	errors    *httputil.ErrorMapper
}

func NewHandler(ledger *usecase.LedgerUseCase, hub *infrastructure.Hub, validator *auth.JWTValidator) *Handler {
	return &Handler{
		ledger:    ledger,
		hub:       hub,
		validator: validator,
		errors: httputil.NewErrorMapper().
			WithMapping(port.ErrInvalidEnvelope, http.StatusBadRequest, "invalid data update").
			WithMapping(port.ErrMissingProofs, http.StatusBadRequest, "missing proofs").
			WithMapping(port.ErrInvalidProof, http.StatusBadRequest, "invalid proof").
			WithMapping(port.ErrUnknownChannel, http.StatusBadRequest, "unknown channel").
			WithMapping(port.ErrSnapshotNotFound, http.StatusNotFound, "snapshot not found"),
	}
}

func (h *Handler) Register(e *echo.Echo) {
	e.POST("/data", h.PostData)
	e.GET("/snapshots/latest/ordinal", h.LatestOrdinal)
	e.GET("/snapshots/:id", h.GetSnapshot)
	e.GET("/ws/updates", h.Updates)
}

func (h *Handler) PostData(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxUpdateBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	hash, err := h.ledger.Accept(c.Request().Context(), body)
	if err != nil {
		info := h.errors.Map(err)
		slog.Warn("data update rejected", slog.Int("status", info.Status), slog.Any("error", err))
		return c.JSON(info.Status, info.Body(err))
	}
	return c.JSON(http.StatusOK, map[string]string{"hash": hash})
}

func (h *Handler) GetSnapshot(c echo.Context) error {
	ordinal, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "snapshot id must be an integer"})
	}
	snapshot, err := h.ledger.Snapshot(ordinal)
	if err != nil {
		info := h.errors.Map(err)
		return c.JSON(info.Status, info.Body(err))
	}
	body, err := snapshot.Body()
	if err != nil {
		slog.Error("snapshot render failed", slog.Int64("ordinal", ordinal), slog.Any("error", err))
		info := h.errors.Map(err)
		return c.JSON(info.Status, info.Body(err))
	}
	return c.JSON(http.StatusOK, body)
}

func (h *Handler) LatestOrdinal(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]int64{"value": h.ledger.LatestOrdinal()})
}

// Updates streams ledger and relayed events. With a JWT secret configured a valid token is
// required and its topics claim, when set, overrides the topics query parameter.
func (h *Handler) Updates(c echo.Context) error {
	subject := "anonymous"
	sessionID := uuid.NewString()
	topics := splitTopics(c.QueryParam("topics"))

	if h.validator.Enabled() {
		claims, err := h.validator.Validate(auth.ExtractToken(c.Request(), "token"))
		if err != nil {
			slog.Warn("updates ws auth failed", slog.String("ip", c.RealIP()), slog.Any("error", err))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
		}
		subject = claims.Subject
		sessionID = claims.SessionID + ":" + sessionID
		if len(claims.Topics) > 0 {
			topics = claims.Topics
		}
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("updates ws upgrade failed", slog.String("ip", c.RealIP()), slog.Any("error", err))
		return err
	}

	client := infrastructure.NewClient(h.hub, conn, subject, sessionID, 32)
	h.hub.Attach(client, topics)
	go client.WritePump()
	go client.ReadPump()

	if len(topics) == 0 {
		topics = []string{"*"}
	}
	connected := events.New(events.SystemEntity, events.ActionConnected, sessionID, map[string]any{
		"topics":        topics,
		"latestOrdinal": h.ledger.LatestOrdinal(),
	}, time.Now()).WithMetadata("subject", subject)
	client.Send(connected)

	slog.Info("updates ws connected", slog.String("subject", subject), slog.String("sessionId", sessionID), slog.String("ip", c.RealIP()))
	return nil
}

func splitTopics(raw string) []string {
	var topics []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			topics = append(topics, trimmed)
		}
	}
	return topics
}
