package matchsrvc

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// buildJudgment renders the one-per-match report: a summary naming the
// winner, a markdown explanation enumerating every competitor's
// placement, rating delta and points, and three quality sub-scores
// derived from the match's judged submissions.
func buildJudgment(matchUUID uuid.UUID, standings []standing, finals []FinalCompetitor, subms []Submission, at time.Time) Judgment {
	winner := standings[0].competitor
	summary := fmt.Sprintf("%s takes first place", displayNameOrShortID(winner))

	var b strings.Builder
	for i, s := range standings {
		fc := finals[i]
		sign := "+"
		if fc.RatingDelta < 0 {
			sign = ""
		}
		fmt.Fprintf(&b, "%d. %s — %s, rating %d → %d (%s%d), +%d points\n",
			fc.Placement,
			displayNameOrShortID(s.competitor),
			fc.Outcome,
			fc.RatingBefore,
			fc.RatingAfter,
			sign, fc.RatingDelta,
			fc.RewardPoints,
		)
	}

	return Judgment{
		MatchUUID:        matchUUID,
		Summary:          summary,
		ExplainMd:        b.String(),
		ScoreCorrectness: correctnessScore(finals),
		ScorePerf:        perfScore(subms),
		ScoreQuality:     qualityScore(subms),
		CreatedAt:        at,
	}
}

func displayNameOrShortID(c Competitor) string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.UUID.String()[:8]
}

// share of competitors that solved the problem
func correctnessScore(finals []FinalCompetitor) int {
	if len(finals) == 0 {
		return 0
	}
	passed := 0
	for _, fc := range finals {
		if fc.Outcome == VerdictPassed {
			passed++
		}
	}
	return int(math.Round(100 * float64(passed) / float64(len(finals))))
}

// fastest passing solution, on a 0-100 scale where <=1s is a full score
func perfScore(subms []Submission) int {
	best := -1
	for _, s := range subms {
		if s.Verdict != VerdictPassed || s.ExecStats == nil {
			continue
		}
		if best == -1 || s.ExecStats.RuntimeMs < best {
			best = s.ExecStats.RuntimeMs
		}
	}
	if best == -1 {
		return 0
	}
	score := 100 - (best-1000)/100
	return clampScore(score)
}

// inverse of the average integrity risk across judged submissions
func qualityScore(subms []Submission) int {
	total, n := 0.0, 0
	for _, s := range subms {
		if s.IntegrityScore == nil {
			continue
		}
		total += *s.IntegrityScore
		n++
	}
	if n == 0 {
		return 100
	}
	return clampScore(int(math.Round(100 * (1 - total/float64(n)))))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
