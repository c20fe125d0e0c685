package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/silenos/silenos-server-go/internal/deck"
	"github.com/silenos/silenos-server-go/internal/game"
	"github.com/silenos/silenos-server-go/internal/repository"
	"github.com/silenos/silenos-server-go/internal/session"
	"go.uber.org/zap"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"cards":  s.sessions.Catalog().Len(),
	})
}

func (s *Server) listCards(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cards": s.sessions.Catalog().All()})
}

func (s *Server) getDeck(c *gin.Context) {
	id, _ := identityFrom(c)
	d, err := s.sessions.GetDeck(c.Request.Context(), id.UID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) saveDeck(c *gin.Context) {
	id, _ := identityFrom(c)
	var d deck.Deck
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, "invalid deck body")
		return
	}
	if err := s.sessions.SaveDeck(c.Request.Context(), id.UID, d); err != nil {
		s.fail(c, err)
		return
	}
	saved, err := s.sessions.GetDeck(c.Request.Context(), id.UID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) createGame(c *gin.Context) {
	id, _ := identityFrom(c)
	view, err := s.sessions.CreateGame(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (s *Server) joinGame(c *gin.Context) {
	id, _ := identityFrom(c)
	view, err := s.sessions.JoinGame(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) getGame(c *gin.Context) {
	id, _ := identityFrom(c)
	view, err := s.sessions.View(c.Request.Context(), c.Param("id"), id.UID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) submitAction(c *gin.Context) {
	id, _ := identityFrom(c)
	var action game.Action
	if err := c.ShouldBindJSON(&action); err != nil || action.Type == "" {
		badRequest(c, "action type is required")
		return
	}

	out, err := s.sessions.SubmitAction(c.Request.Context(), c.Param("id"), id.UID, action)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// gameSummary is the admin listing entry. It leaves out decks and state.
type gameSummary struct {
	ID         string               `json:"id"`
	Status     repository.Status    `json:"status"`
	Version    int64                `json:"version"`
	Host       *session.SeatSummary `json:"host,omitempty"`
	Guest      *session.SeatSummary `json:"guest,omitempty"`
	TurnNumber int                  `json:"turnNumber,omitempty"`
	Winner     string               `json:"winner,omitempty"`
	Pending    bool                 `json:"pendingAttack"`
	CreatedAt  time.Time            `json:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

func summarize(rec *repository.GameRecord) gameSummary {
	out := gameSummary{
		ID:        rec.ID,
		Status:    rec.Status,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.Player1 != nil {
		out.Host = &session.SeatSummary{UID: rec.Player1.UID, DisplayName: rec.Player1.DisplayName}
	}
	if rec.Player2 != nil {
		out.Guest = &session.SeatSummary{UID: rec.Player2.UID, DisplayName: rec.Player2.DisplayName}
	}
	if rec.State != nil {
		out.TurnNumber = rec.State.TurnNumber
		out.Winner = rec.State.Winner
		out.Pending = rec.State.PendingAttack != nil
	}
	return out
}

func (s *Server) adminListGames(c *gin.Context) {
	status := repository.Status(c.Query("status"))
	if status != "" && !status.Valid() {
		badRequest(c, "unknown status "+string(status))
		return
	}

	recs, err := s.sessions.ListGames(c.Request.Context(), status)
	if err != nil {
		s.fail(c, err)
		return
	}
	games := make([]gameSummary, 0, len(recs))
	for _, rec := range recs {
		games = append(games, summarize(rec))
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

func (s *Server) adminReloadCatalog(c *gin.Context) {
	cat, err := s.sessions.ReloadCatalog(c.Request.Context())
	if err != nil {
		s.logger.Warn("admin catalog reload failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cat.Len()})
}
