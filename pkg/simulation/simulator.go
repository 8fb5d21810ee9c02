// Package simulation generates daily quality scores and drives multi-day
// runs of the investigation cycle.
package simulation

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/unneeks/stewardagent/pkg/actions"
	"github.com/unneeks/stewardagent/pkg/governance"
	"github.com/unneeks/stewardagent/pkg/investigation"
)

// Score model: unremediated elements fluctuate around Baseline by up to
// Jitter; elements with an applied remediation score in
// [RemediatedFloor, RemediatedFloor+RemediatedSpread).
const (
	Baseline         = 0.85
	Jitter           = 0.1
	RemediatedFloor  = 0.97
	RemediatedSpread = 0.03
)

// Cycler runs one investigation cycle.
type Cycler interface {
	RunCycle(ctx context.Context, date string) (*investigation.CycleResult, error)
}

// Simulator writes one score per tracked element per day.
type Simulator struct {
	store   governance.ReferenceStore
	actions *actions.Store
	rng     *rand.Rand
	logger  *slog.Logger
}

// New creates a Simulator. The same seed yields the same scores for the
// same sequence of calls.
func New(store governance.ReferenceStore, actionStore *actions.Store, seed uint64) *Simulator {
	return &Simulator{
		store:   store,
		actions: actionStore,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger:  slog.Default().With("component", "simulation"),
	}
}

// Generate writes scores for date and returns them in TDE order.
func (s *Simulator) Generate(ctx context.Context, date string) ([]*governance.DailyScore, error) {
	if _, err := governance.ParseDate(date); err != nil {
		return nil, err
	}
	tdes, err := s.store.ListTDEs(ctx)
	if err != nil {
		return nil, err
	}
	applied, err := s.actions.ListApplied(ctx)
	if err != nil {
		return nil, err
	}
	remediated := make(map[string]bool, len(applied))
	for _, a := range applied {
		remediated[a.TDEID] = true
	}

	scores := make([]*governance.DailyScore, 0, len(tdes))
	for _, t := range tdes {
		var v float64
		if remediated[t.ID] {
			v = RemediatedFloor + s.rng.Float64()*RemediatedSpread
		} else {
			v = Baseline + (s.rng.Float64()*2-1)*Jitter
		}
		score := &governance.DailyScore{Date: date, TDEID: t.ID, Score: clamp(v)}
		if err := s.store.UpsertScore(ctx, score); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}

	s.logger.Debug("scores generated", "date", date, "count", len(scores), "remediated", len(remediated))
	return scores, nil
}

func clamp(v float64) float64 {
	return max(0, min(1, v))
}

// RunOptions configures a multi-day run.
type RunOptions struct {
	// Start is the date of day 0.
	Start time.Time
	// FirstDay and Days select days FirstDay..FirstDay+Days-1.
	FirstDay int
	Days     int
	// AutoApply flips every open action to applied after each cycle, as if
	// an engineer merged every proposal.
	AutoApply bool
	// OnDay is called after each cycle.
	OnDay func(day int, res *investigation.CycleResult)
}

// Run generates scores and runs a cycle for each day in order.
func (s *Simulator) Run(ctx context.Context, c Cycler, opts RunOptions) error {
	for i := 0; i < opts.Days; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		day := opts.FirstDay + i
		date := governance.FormatDate(opts.Start.AddDate(0, 0, day))

		if _, err := s.Generate(ctx, date); err != nil {
			return err
		}
		res, err := c.RunCycle(ctx, date)
		if err != nil {
			return err
		}
		if opts.AutoApply {
			if err := s.applyOpen(ctx); err != nil {
				return err
			}
		}
		if opts.OnDay != nil {
			opts.OnDay(day, res)
		}
	}
	return nil
}

func (s *Simulator) applyOpen(ctx context.Context) error {
	open, err := s.actions.List(ctx, governance.ActionOpen)
	if err != nil {
		return err
	}
	for _, a := range open {
		if err := s.actions.Apply(ctx, a.ID); err != nil {
			return err
		}
	}
	return nil
}
