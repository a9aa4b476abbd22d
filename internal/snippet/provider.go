// internal/snippet/provider.go
package snippet

import (
	"context"
	"fmt"

	"github.com/e-moran/debugduel/internal/common"
)

// Snippet is one generated code sample plus its ground-truth answer key.
// BugLines are 1-based line numbers into Code.
type Snippet struct {
	Code     string `json:"code"`
	BugLines []int  `json:"bug_lines"`
}

// Provider supplies duel content. Implementations must only return snippets
// that pass Validate; any upstream failure surfaces as ErrSnippetUnavailable
// so duel creation aborts cleanly instead of storing a corrupt duel.
type Provider interface {
	Generate(ctx context.Context) (Snippet, error)
}

// Validate checks that the snippet has code, at least one bug line, and that
// every bug line references a real 1-based line. The prompt contract asks the
// model for exactly three bug lines, but consumers treat the key as an opaque
// set of any size >= 1.
func Validate(s Snippet) error {
	if s.Code == "" {
		return fmt.Errorf("%w: empty code", common.ErrSnippetUnavailable)
	}
	if len(s.BugLines) == 0 {
		return fmt.Errorf("%w: no bug lines", common.ErrSnippetUnavailable)
	}
	lines := lineCount(s.Code)
	seen := make(map[int]struct{}, len(s.BugLines))
	for _, n := range s.BugLines {
		if n < 1 || n > lines {
			return fmt.Errorf("%w: bug line %d out of range 1..%d", common.ErrSnippetUnavailable, n, lines)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: duplicate bug line %d", common.ErrSnippetUnavailable, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

func lineCount(code string) int {
	n := 1
	for _, r := range code {
		if r == '\n' {
			n++
		}
	}
	return n
}
