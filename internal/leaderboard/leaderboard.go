// internal/leaderboard/leaderboard.go
package leaderboard

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/e-moran/debugduel/internal/cache"
	"github.com/e-moran/debugduel/internal/models"
	"github.com/e-moran/debugduel/internal/store"
)

// DefaultTopN matches the sidebar view: the five highest-rated players.
const DefaultTopN = 5

// Top computes the top-n users by rating from the given state. Equal ratings
// keep a stable order (username ascending), so repeated reads agree.
func Top(st *models.State, n int) []models.LeaderboardEntry {
	users := make([]*models.User, 0, len(st.Users))
	for _, u := range st.Users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Rating != users[j].Rating {
			return users[i].Rating > users[j].Rating
		}
		return users[i].Username < users[j].Username
	})

	if n > 0 && n < len(users) {
		users = users[:n]
	}
	entries := make([]models.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, models.LeaderboardEntry{Username: u.Username, Rating: u.Rating})
	}
	return entries
}

// Service answers leaderboard reads, recomputing from current state on every
// request. When Redis is connected the result is cached for cache.LeaderboardTTL
// to absorb bursts; a cache failure silently falls back to recomputing.
type Service struct {
	Store  store.Backend
	Logger *logrus.Logger
}

func NewService(st store.Backend, logger *logrus.Logger) *Service {
	return &Service{Store: st, Logger: logger}
}

func (s *Service) Top(ctx context.Context, n int) ([]models.LeaderboardEntry, error) {
	if n <= 0 {
		n = DefaultTopN
	}

	if cache.Rdb != nil {
		if entries, ok := cache.CachedLeaderboard(ctx, n); ok {
			return entries, nil
		}
	}

	var entries []models.LeaderboardEntry
	err := s.Store.View(ctx, func(st *models.State) error {
		entries = Top(st, n)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cache.Rdb != nil {
		if err := cache.CacheLeaderboard(ctx, n, entries); err != nil {
			s.Logger.Warnf("failed to cache leaderboard: %v", err)
		}
	}
	return entries, nil
}
