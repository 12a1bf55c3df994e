package service

import (
	"sort"

	"pricebid-recon/internal/reconcile/model"
)

// AcceptScore is exclusive: a match needs score > AcceptScore.
const AcceptScore = 98

type MatchOutcome struct {
	Best   *model.CatalogEntry
	Score  int
	Ranked []model.Candidate // every candidate, score descending
}

func (o MatchOutcome) Accepted() bool {
	return o.Best != nil && o.Score > AcceptScore
}

// FindBestMatch scores candidates (already in edit-distance order) against query.
// The running best only moves on a strictly higher score from a structurally
// equal candidate, so ties keep the closer candidate.
func FindBestMatch(candidates []model.CatalogEntry, query string) MatchOutcome {
	var out MatchOutcome
	out.Ranked = make([]model.Candidate, 0, len(candidates))

	for i := range candidates {
		c := &candidates[i]
		score := TokenSortRatio(query, c.NormalizedText)
		if score > out.Score && StructurallyEqual(query, c.NormalizedText) {
			out.Score = score
			out.Best = c
		}
		out.Ranked = append(out.Ranked, model.Candidate{ID: c.ID, Text: c.Text, Score: score})
	}

	sort.SliceStable(out.Ranked, func(i, j int) bool {
		return out.Ranked[i].Score > out.Ranked[j].Score
	})
	return out
}
