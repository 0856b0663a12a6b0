// Package sweep builds families of reactor variants, one per animation
// frame, by scaling one build entry or the elongation at a time. Every
// variant gets its own assembly; nothing is shared between builds.
package sweep

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/toroid/pkg/assembly"
	"github.com/chazu/toroid/pkg/build"
	"github.com/chazu/toroid/pkg/reactor"
)

// DefaultFactors grows a value to double and back.
var DefaultFactors = []float64{1, 1.5, 2, 1.5, 1}

// ElongationEntry marks a variant that scales the elongation rather than a
// radial build entry.
const ElongationEntry = -1

// Variant is one frame of a sweep.
type Variant struct {
	Frame   int           `json:"frame"`
	Entry   int           `json:"entry"` // radial build index, or ElongationEntry
	Factor  float64       `json:"factor"`
	Request build.Request `json:"request"`
}

// Name returns the frame name, e.g. frame_007.
func (v Variant) Name() string {
	return fmt.Sprintf("frame_%03d", v.Frame)
}

// Variants scales each radial entry in turn by every factor, then the
// elongation by every factor. Frames are numbered in that order. The
// tokamak family derives its elongation from the vertical build, so it
// gets no elongation frames.
func Variants(base build.Request, factors []float64) []Variant {
	if len(factors) == 0 {
		factors = DefaultFactors
	}
	var out []Variant
	for i := range base.Radial {
		for _, f := range factors {
			req := base
			req.Radial = base.Radial.Clone()
			req.Radial[i].Thickness *= f
			out = append(out, Variant{Frame: len(out), Entry: i, Factor: f, Request: req})
		}
	}
	if base.Family != build.FamilyTokamak {
		for _, f := range factors {
			req := base
			req.Radial = base.Radial.Clone()
			req.Shape.Elongation *= f
			out = append(out, Variant{Frame: len(out), Entry: ElongationEntry, Factor: f, Request: req})
		}
	}
	return out
}

// Result is a built variant.
type Result struct {
	Variant
	Assembly *assembly.Assembly
}

// Report is the outcome of a sweep.
type Report struct {
	ID      string
	Results []Result // in frame order
}

// Options controls Run.
type Options struct {
	// Concurrency caps the number of variants built at once. Zero or less
	// means one at a time.
	Concurrency int
	// Each, when set, is called with every built variant from the worker
	// that built it. Returning an error stops the sweep.
	Each   func(ctx context.Context, r Result) error
	Logger *zap.Logger
}

// Run builds every variant with b. The first error cancels the remaining
// builds and is returned.
func Run(ctx context.Context, b *reactor.Builder, name string, variants []Variant, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}

	report := &Report{ID: uuid.NewString(), Results: make([]Result, len(variants))}
	logger = logger.With(zap.String("sweep", report.ID), zap.String("reactor", name))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, v := range variants {
		g.Go(func() error {
			a, err := b.Build(ctx, name, v.Request)
			if err != nil {
				return fmt.Errorf("%s: %w", v.Name(), err)
			}
			r := Result{Variant: v, Assembly: a}
			if opts.Each != nil {
				if err := opts.Each(ctx, r); err != nil {
					return fmt.Errorf("%s: %w", v.Name(), err)
				}
			}
			mu.Lock()
			report.Results[i] = r
			mu.Unlock()
			logger.Debug("variant built", zap.String("frame", v.Name()), zap.Int("entry", v.Entry), zap.Float64("factor", v.Factor))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Info("sweep finished", zap.Int("variants", len(variants)))
	return report, nil
}
