package rating

import (
	"math"
	"testing"

	"github.com/e-moran/debugduel/internal/models"
)

func TestEloEqualRatings(t *testing.T) {
	newW, newL := Elo(1000, 1000)
	if newW != 1016 {
		t.Errorf("winner at equal ratings should gain K/2 = 16, got %v", newW-1000)
	}
	if newL != 984 {
		t.Errorf("loser at equal ratings should lose 16, got %v", newL-1000)
	}
}

func TestEloZeroSum(t *testing.T) {
	for _, pair := range [][2]float64{{1000, 1000}, {1200, 800}, {950.5, 1430.25}} {
		newW, newL := Elo(pair[0], pair[1])
		gain := newW - pair[0]
		loss := pair[1] - newL
		if math.Abs(gain-loss) > 1e-9 {
			t.Errorf("Elo(%v, %v): gain %v != loss %v", pair[0], pair[1], gain, loss)
		}
		if gain <= 0 {
			t.Errorf("Elo(%v, %v): winner should always gain, got %v", pair[0], pair[1], gain)
		}
	}
}

func TestEloUpsetPaysMore(t *testing.T) {
	underdogW, _ := Elo(800, 1200)
	favoriteW, _ := Elo(1200, 800)
	if underdogW-800 <= favoriteW-1200 {
		t.Errorf("underdog win should pay more than favorite win: %v vs %v", underdogW-800, favoriteW-1200)
	}
}

func TestEloAllowsNegative(t *testing.T) {
	_, newL := Elo(1000, 5)
	if newL >= 5 {
		t.Errorf("loser rating should drop, got %v", newL)
	}
	// No floor: a low enough rating goes negative.
	_, newL = Elo(1000, 1)
	if newL > 1 {
		t.Errorf("expected loser below starting rating, got %v", newL)
	}
}

func TestBotDelta(t *testing.T) {
	cases := []struct {
		difficulty models.BotDifficulty
		humanWon   bool
		want       float64
	}{
		{models.BotEasy, true, 10},
		{models.BotHard, true, 20},
		{models.BotEasy, false, -5},
		{models.BotHard, false, -10},
	}
	for _, c := range cases {
		if got := BotDelta(c.difficulty, c.humanWon); got != c.want {
			t.Errorf("BotDelta(%s, %v) = %v, want %v", c.difficulty, c.humanWon, got, c.want)
		}
	}
}
