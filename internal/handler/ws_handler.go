package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prepnova/mocktest-backend/internal/config"
	"github.com/prepnova/mocktest-backend/internal/middleware"
	"github.com/prepnova/mocktest-backend/internal/service"
	ws "github.com/prepnova/mocktest-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
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

// WSHandler streams the authoritative attempt clock to candidates.
type WSHandler struct {
	rdb           *redis.Client
	testService   *service.TestService
	resultService *service.ResultService
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, testService *service.TestService, resultService *service.ResultService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:           rdb,
		testService:   testService,
		resultService: resultService,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// ClockStream godoc
// WS /ws/v1/candidate/tests/:test_id/clock
// Upgrades to WebSocket and pushes the remaining time every second. The
// server owns the clock: when it reaches zero the attempt is queued for
// finalization regardless of what the client displays.
func (h *WSHandler) ClockStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	candidateID, err := claims.UserID()
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid test ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("candidate_id", candidateID.String()).
		Str("test_id", testID.String()).
		Logger()

	ctx := context.Background()

	endTime, err := h.attemptEndTime(ctx, candidateID, testID)
	if err != nil {
		wsLog.Warn().Err(err).Msg("clock stream rejected")
		ws.WriteError(conn, "no open attempt for this test")
		return
	}

	wsLog.Info().Time("end_time", endTime).Msg("Candidate connected to clock")

	// Single writer: the reader goroutine forwards actions over a channel
	// so the ticker loop is the only goroutine touching the connection.
	actions := make(chan ws.Action)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			select {
			case actions <- msg.Action:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case action := <-actions:
			switch action {
			case ws.ActionPing:
				ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionSubmit:
				result, err := h.resultService.FinalizeAttempt(ctx, candidateID, testID)
				if err != nil {
					wsLog.Error().Err(err).Msg("Manual submit failed")
					ws.WriteError(conn, "submit failed")
					continue
				}
				ws.WriteTyped(conn, ws.SubmittedResponse{
					Event:      ws.EventSubmitted,
					TotalScore: result.TotalScore,
					Attempted:  result.Attempted,
				})
				return
			default:
				ws.WriteError(conn, "unknown action: "+string(action))
			}

		case now := <-ticker.C:
			remaining := time.Until(endTime)
			if remaining <= 0 {
				ws.WriteTyped(conn, ws.TimeUpResponse{Event: ws.EventTimeUp})
				h.enqueueFinalize(ctx, wsLog, candidateID, testID, now)
				return
			}
			ws.WriteTyped(conn, ws.TickResponse{
				Event:            ws.EventTick,
				RemainingSeconds: int64(remaining.Seconds()),
			})
		}
	}
}

// attemptEndTime computes when the candidate's attempt expires, reading
// the start time and duration from Redis with a PostgreSQL fallback.
func (h *WSHandler) attemptEndTime(ctx context.Context, candidateID, testID uuid.UUID) (time.Time, error) {
	var startUnix int64

	startKey := config.CacheKey.AttemptStartKey(testID.String(), candidateID.String())
	val, err := h.rdb.Get(ctx, startKey).Result()
	switch {
	case err == nil:
		startUnix, err = strconv.ParseInt(val, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
	case errors.Is(err, redis.Nil):
		// Cache miss. Fall back to the attempt row and self-heal.
		result, err := h.resultService.GetResult(ctx, candidateID, testID)
		if err != nil {
			return time.Time{}, err
		}
		if result.Finalized() {
			return time.Time{}, errors.New("attempt already finalized")
		}
		startUnix = result.StartedAt.Unix()
		_ = h.rdb.Set(ctx, startKey, startUnix, 0)
	default:
		return time.Time{}, err
	}

	durationStr, err := h.rdb.Get(ctx, config.CacheKey.TestDurationKey(testID.String())).Result()
	var durationMinutes int
	if err == nil {
		durationMinutes, err = strconv.Atoi(durationStr)
		if err != nil {
			return time.Time{}, err
		}
	} else if errors.Is(err, redis.Nil) {
		test, err := h.testService.GetTest(ctx, testID)
		if err != nil {
			return time.Time{}, err
		}
		durationMinutes = test.DurationMinutes
		_ = h.rdb.Set(ctx, config.CacheKey.TestDurationKey(testID.String()), strconv.Itoa(durationMinutes), 0)
	} else {
		return time.Time{}, err
	}

	return time.Unix(startUnix, 0).Add(time.Duration(durationMinutes) * time.Minute), nil
}

// enqueueFinalize hands the expired attempt to the finalize worker. The
// queue decouples the clock stream from the database write, and the
// worker's batch update is idempotent if the candidate also pressed
// submit in the same instant.
func (h *WSHandler) enqueueFinalize(ctx context.Context, wsLog zerolog.Logger, candidateID, testID uuid.UUID, expiredAt time.Time) {
	payload, _ := json.Marshal(map[string]interface{}{
		"candidate_id": candidateID.String(),
		"test_id":      testID.String(),
		"expired_at":   expiredAt.Unix(),
	})
	if err := h.rdb.RPush(ctx, config.WorkerKey.FinalizeResultsQueue, payload).Err(); err != nil {
		wsLog.Error().Err(err).Msg("Failed to enqueue finalize, closing attempt inline")
		if _, err := h.resultService.FinalizeAttempt(ctx, candidateID, testID); err != nil {
			wsLog.Error().Err(err).Msg("Inline finalize failed")
		}
		return
	}
	wsLog.Info().Msg("Attempt expired, queued for finalization")
}
