// internal/rating/elo.go
package rating

import (
	"math"

	"github.com/e-moran/debugduel/internal/models"
)

// K is the Elo K-factor applied to every human-vs-human duel.
const K = 32.0

// Elo returns the updated ratings for the winner and loser of a duel.
// Ratings are unbounded floats; negative results are a valid mathematical
// consequence and not clamped.
func Elo(winner, loser float64) (newWinner, newLoser float64) {
	expected := 1.0 / (1.0 + math.Pow(10, (loser-winner)/400.0))
	newWinner = winner + K*(1.0-expected)
	newLoser = loser + K*(0.0-(1.0-expected))
	return newWinner, newLoser
}

// BotDelta returns the fixed rating adjustment applied to the human after a
// decisive bot duel. Bot duels never use Elo; ties leave the rating alone.
func BotDelta(difficulty models.BotDifficulty, humanWon bool) float64 {
	switch {
	case humanWon && difficulty == models.BotHard:
		return 20
	case humanWon:
		return 10
	case difficulty == models.BotHard:
		return -10
	default:
		return -5
	}
}
