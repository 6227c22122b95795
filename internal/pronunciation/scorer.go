package pronunciation

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// DefaultContributorBonus is the score added to recordings of trusted contributors.
const DefaultContributorBonus int64 = 2

// DefaultBonusContributors returns the contributors whose recordings are known to be clear and accurate.
func DefaultBonusContributors() []ContributorID {
	return []ContributorID{
		"1640max",
		"Spinster",
		"szurzuncik",
		"ae5s",
		"Shady_arc",
		"zhivanova",
		"Selene71",
	}
}

// BonusPolicy is an immutable allow-list of contributors that receive a flat score bonus.
// The zero value grants no bonus to anyone.
type BonusPolicy struct {
	bonus        int64
	contributors map[ContributorID]struct{}
}

// NewBonusPolicy creates a policy granting bonus to every listed contributor.
// Matching is exact and case-sensitive; the input slice is copied.
func NewBonusPolicy(bonus int64, contributors ...ContributorID) BonusPolicy {
	set := make(map[ContributorID]struct{}, len(contributors))
	for _, id := range contributors {
		set[id] = struct{}{}
	}

	return BonusPolicy{
		bonus:        bonus,
		contributors: set,
	}
}

// DefaultBonusPolicy returns the built-in policy.
func DefaultBonusPolicy() BonusPolicy {
	return NewBonusPolicy(DefaultContributorBonus, DefaultBonusContributors()...)
}

// Bonus returns the score bonus for the contributor, or zero when it is not on the list.
func (p BonusPolicy) Bonus(id ContributorID) int64 {
	if !p.IsTrusted(id) {
		return 0
	}

	return p.bonus
}

// IsTrusted reports whether the contributor is on the list.
func (p BonusPolicy) IsTrusted(id ContributorID) bool {
	_, ok := p.contributors[id]

	return ok
}

// Contributors returns the listed contributors in sorted order.
func (p BonusPolicy) Contributors() []ContributorID {
	result := make([]ContributorID, 0, len(p.contributors))
	for id := range p.contributors {
		result = append(result, id)
	}

	slices.Sort(result)

	return result
}

// String returns a short description of the policy for logs.
func (p BonusPolicy) String() string {
	names := make([]string, 0, len(p.contributors))
	for _, id := range p.Contributors() {
		names = append(names, id.String())
	}

	return "+" + strconv.FormatInt(p.bonus, 10) + " for [" + strings.Join(names, ", ") + "]"
}

// Scorer ranks candidates with a bonus policy.
type Scorer struct {
	policy BonusPolicy
}

// NewScorer creates a scorer using the given policy.
func NewScorer(policy BonusPolicy) *Scorer {
	return &Scorer{policy: policy}
}

// Score computes the score of the candidate found at the given position in provider order.
// Scores are not clamped: down-voted candidates may score below zero.
func (s *Scorer) Score(c Candidate, position int) ScoredCandidate {
	return ScoredCandidate{
		Candidate: c,
		Score:     c.Votes + s.policy.Bonus(c.ContributorID),
		Position:  position,
	}
}

// Select picks the candidate with the highest score.
// Ties go to the candidate that appears first in provider order.
// An empty input yields the "no candidates" outcome.
func (s *Scorer) Select(candidates []Candidate) SelectionResult {
	var winner *ScoredCandidate

	for i, c := range candidates {
		scored := s.Score(c, i)

		// Strict comparison keeps the earliest candidate on ties.
		if winner == nil || scored.Score > winner.Score {
			winner = &scored
		}
	}

	return SelectionResult{winner: winner}
}

// Rank returns every candidate scored and ordered by score, highest first.
// Candidates with equal scores keep provider order, so Rank(cs)[0] is the Select winner.
func (s *Scorer) Rank(candidates []Candidate) []ScoredCandidate {
	ranked := make([]ScoredCandidate, 0, len(candidates))
	for i, c := range candidates {
		ranked = append(ranked, s.Score(c, i))
	}

	slices.SortStableFunc(ranked, func(a, b ScoredCandidate) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return ranked
}
