// internal/snippet/static.go
package snippet

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// StaticProvider serves canned snippets. Used for local development and tests
// when no completion API key is configured.
type StaticProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (p *StaticProvider) Generate(ctx context.Context) (Snippet, error) {
	p.mu.Lock()
	s := staticSnippets[p.rng.Intn(len(staticSnippets))]
	p.mu.Unlock()
	return s, nil
}

var staticSnippets = []Snippet{
	{
		Code: `func sum(nums []int) int {
	total := 1
	for i := 0; i <= len(nums); i++ {
		total += nums[i]
	}
	return total
}

var result = sum([]float64{1, 2, 3})`,
		BugLines: []int{2, 3, 9},
	},
	{
		Code: `func findMax(nums []int) int {
	max := 0
	for _, n := range nums {
		if n < max {
			max = n
		}
	}
	return min
}`,
		BugLines: []int{2, 4, 8},
	},
	{
		Code: `func average(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total -= x
	}
	count := len(xs) - 1
	return total / float64(count)
}`,
		BugLines: []int{4, 6, 7},
	},
}
