// Pre-flight environment gate. Every automated page interaction asks
// this gate first; any single failing check blocks the whole pipeline.

package safety

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type CheckResult struct {
	Name   string `json:"name"`
	Safe   bool   `json:"safe"`
	Reason string `json:"reason,omitempty"`
}

// Verdict aggregates all check results. Reason carries the first
// failing check's reason; Checks keeps everything for diagnostics.
type Verdict struct {
	Safe           bool          `json:"safe"`
	Reason         string        `json:"reason,omitempty"`
	Recommendation string        `json:"recommendation,omitempty"`
	Confidence     int           `json:"confidence"`
	Checks         []CheckResult `json:"checks"`
}

type Check struct {
	Name string
	Run  func(ctx context.Context) CheckResult
	//Recommendation is surfaced to the operator when this check fails
	Recommendation string
}

type Gate struct {
	checks []Check
}

func NewGate(checks ...Check) *Gate {
	return &Gate{checks: checks}
}

// Evaluate runs every check concurrently. The checks are independent
// reads of the page, so fanning out keeps the gate cheap enough to call
// before every single interaction.
func (g *Gate) Evaluate(ctx context.Context) Verdict {
	results := make([]CheckResult, len(g.checks))

	eg, ctx := errgroup.WithContext(ctx)
	for i, c := range g.checks {
		eg.Go(func() error {
			results[i] = c.Run(ctx)
			return nil
		})
	}
	_ = eg.Wait()

	verdict := Verdict{Safe: true, Checks: results}
	passing := 0
	for i, r := range results {
		if r.Safe {
			passing++
			continue
		}
		if verdict.Safe {
			//first failing check (in declaration order) wins
			verdict.Safe = false
			verdict.Reason = r.Reason
			verdict.Recommendation = g.checks[i].Recommendation
		}
	}

	if verdict.Safe && len(results) > 0 {
		verdict.Confidence = passing * 100 / len(results)
	}
	return verdict
}
