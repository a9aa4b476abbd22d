// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/e-moran/debugduel/internal/duel"
	"github.com/e-moran/debugduel/internal/leaderboard"
	"github.com/e-moran/debugduel/internal/match"
	"github.com/e-moran/debugduel/internal/relay"
	"github.com/e-moran/debugduel/internal/store"
)

// Server bundles the core components behind the HTTP surface.
type Server struct {
	Store       store.Backend
	Matchmaker  *match.Matchmaker
	Engine      *duel.Engine
	Leaderboard *leaderboard.Service
	Hub         *relay.Hub
	Logger      *logrus.Logger
}

func NewServer(st store.Backend, mm *match.Matchmaker, eng *duel.Engine, lb *leaderboard.Service, hub *relay.Hub, logger *logrus.Logger) *Server {
	return &Server{
		Store:       st,
		Matchmaker:  mm,
		Engine:      eng,
		Leaderboard: lb,
		Hub:         hub,
		Logger:      logger,
	}
}

// Routes wires every endpoint onto a ServeMux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", s.CreateUserHandler)
	mux.HandleFunc("/user/login", s.LoginHandler)
	mux.HandleFunc("/user/me", s.MeHandler)

	// matchmaking
	mux.HandleFunc("/queue/join", s.JoinQueueHandler)
	mux.HandleFunc("/queue/leave", s.LeaveQueueHandler)
	mux.HandleFunc("/queue/match", s.MatchHandler)
	mux.HandleFunc("/queue/status", s.QueueStatusHandler)

	// duels
	mux.HandleFunc("/duel/bot", s.CreateBotDuelHandler)
	mux.HandleFunc("/duel/ws", DuelWSHandler(s.Logger, s.Hub))
	mux.HandleFunc("/duel/", s.DuelHandler)

	// leaderboard
	mux.HandleFunc("/leaderboard", s.LeaderboardHandler)

	return mux
}
