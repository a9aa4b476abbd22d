// internal/bot/oracle.go
package bot

import (
	"math/rand"
	"sort"

	"github.com/e-moran/debugduel/internal/models"
)

// Answer synthesizes the bot's line selection for a bot duel.
//
// HARD bots never err: they return the exact answer key. EASY bots find a
// random subset of the bug lines (at least one) and add up to two false
// positives from the clean lines, so they are beatable but not trivially so.
func Answer(d *models.Duel, rng *rand.Rand) []int {
	if d.BotDifficulty == models.BotHard {
		out := append([]int(nil), d.BugLines...)
		sort.Ints(out)
		return out
	}
	return easyAnswer(d, rng)
}

func easyAnswer(d *models.Duel, rng *rand.Rand) []int {
	bugs := append([]int(nil), d.BugLines...)
	rng.Shuffle(len(bugs), func(i, j int) { bugs[i], bugs[j] = bugs[j], bugs[i] })

	// 1..len(bugs) correct picks
	found := bugs[:1+rng.Intn(len(bugs))]

	bugSet := make(map[int]struct{}, len(d.BugLines))
	for _, n := range d.BugLines {
		bugSet[n] = struct{}{}
	}
	var clean []int
	for n := 1; n <= d.LineCount(); n++ {
		if _, buggy := bugSet[n]; !buggy {
			clean = append(clean, n)
		}
	}
	rng.Shuffle(len(clean), func(i, j int) { clean[i], clean[j] = clean[j], clean[i] })

	// 0..2 false positives, capped by available clean lines
	wrong := rng.Intn(3)
	if wrong > len(clean) {
		wrong = len(clean)
	}

	out := append(append([]int(nil), found...), clean[:wrong]...)
	sort.Ints(out)
	return out
}
