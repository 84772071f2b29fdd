// Package resolve turns free-text names from parsed messages into concrete
// directory entities. Resolution is fail-closed: any upstream failure is
// reported as zero matches so the conversation ends with a clean "not found"
// rather than a half-resolved request.
package resolve

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/sitebot/chatgate/internal/domain"
)

const (
	// fuzzyCutoff is the minimum similarity score (0-100) for a project
	// to count as a match in the fuzzy ranking path.
	fuzzyCutoff = 80

	// MaxMatches caps the candidate list handed back for disambiguation.
	MaxMatches = 10
)

// Directory is the remote lookup surface the resolver needs.
type Directory interface {
	SearchUsers(ctx context.Context, hubID, name, token string) ([]domain.Candidate, error)
	ListProjects(ctx context.Context, hubID, nameFilter, token string) ([]domain.Candidate, error)
}

// Resolver resolves user and project names against the directory API.
type Resolver struct {
	dir Directory
}

// New creates a resolver over dir.
func New(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Users resolves a person name with the directory's server-side search.
// There is no client-side fuzzy pass for users; what the server matches is
// the candidate set.
func (r *Resolver) Users(ctx context.Context, hubID, name, token string) []domain.Candidate {
	matches, err := r.dir.SearchUsers(ctx, hubID, name, token)
	if err != nil {
		slog.Error("user search failed", "hub_id", hubID, "name", name, "error", err)
		return nil
	}
	return capMatches(matches)
}

// Projects resolves a project name in two passes: a direct server-side name
// filter first, and if that finds nothing, a fuzzy ranking over the full
// project list.
func (r *Resolver) Projects(ctx context.Context, hubID, name, token string) []domain.Candidate {
	direct, err := r.dir.ListProjects(ctx, hubID, name, token)
	if err != nil {
		slog.Error("project search failed", "hub_id", hubID, "name", name, "error", err)
		return nil
	}
	if len(direct) > 0 {
		return capMatches(direct)
	}

	all, err := r.dir.ListProjects(ctx, hubID, "", token)
	if err != nil {
		slog.Error("project list failed", "hub_id", hubID, "error", err)
		return nil
	}
	return rankFuzzy(name, all)
}

type scoredCandidate struct {
	domain.Candidate
	score int
}

// rankFuzzy keeps candidates scoring at least fuzzyCutoff against query,
// ordered best first, capped at MaxMatches.
func rankFuzzy(query string, candidates []domain.Candidate) []domain.Candidate {
	scored := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		s := similarity(query, c.Name)
		if s >= fuzzyCutoff {
			scored = append(scored, scoredCandidate{Candidate: c, score: s})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	if len(scored) > MaxMatches {
		scored = scored[:MaxMatches]
	}
	out := make([]domain.Candidate, 0, len(scored))
	for _, sc := range scored {
		out = append(out, sc.Candidate)
	}
	return out
}

// similarity is a case-insensitive edit-distance ratio on a 0-100 scale.
func similarity(a, b string) int {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 100
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return (longest - dist) * 100 / longest
}

func capMatches(matches []domain.Candidate) []domain.Candidate {
	if len(matches) > MaxMatches {
		return matches[:MaxMatches]
	}
	return matches
}
