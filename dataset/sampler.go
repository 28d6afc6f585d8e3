package dataset

import (
	"context"
	"fmt"
	"iter"
	"math"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"fertiplan/nutrient"
)

// Bounds limits the numeric draws of a Sampler. All ranges are inclusive.
type Bounds struct {
	MinDays        int     `yaml:"min_days"`
	MaxDays        int     `yaml:"max_days"`
	MinArea        float64 `yaml:"min_area"`
	MaxArea        float64 `yaml:"max_area"`
	MaxIrrigations int     `yaml:"max_irrigations"`
}

// DefaultBounds matches the ranges the original training set was drawn from.
var DefaultBounds = Bounds{MinDays: 5, MaxDays: 120, MinArea: 0.5, MaxArea: 5.0, MaxIrrigations: 4}

func (b Bounds) validate() error {
	switch {
	case b.MinDays < 0 || b.MaxDays < b.MinDays:
		return fmt.Errorf("bad day bounds [%d, %d]", b.MinDays, b.MaxDays)
	case b.MinArea <= 0 || b.MaxArea < b.MinArea:
		return fmt.Errorf("bad area bounds [%g, %g]", b.MinArea, b.MaxArea)
	case b.MaxIrrigations < 0:
		return fmt.Errorf("bad irrigation bound %d", b.MaxIrrigations)
	}
	return nil
}

// Sampler draws random field contexts for one crop and labels them.
type Sampler struct {
	crop   nutrient.Crop
	bounds Bounds
}

// NewSampler returns a Sampler for crop using bounds.
func NewSampler(crop nutrient.Crop, bounds Bounds) (*Sampler, error) {
	if crop != nutrient.Wheat && crop != nutrient.Rice {
		return nil, &nutrient.InvalidInputError{Field: ColCrop, Value: crop.String()}
	}
	if err := bounds.validate(); err != nil {
		return nil, err
	}
	return &Sampler{crop: crop, bounds: bounds}, nil
}

// Crop returns the crop this sampler draws for.
func (s *Sampler) Crop() nutrient.Crop { return s.crop }

var (
	soils       = []nutrient.Soil{nutrient.Sandy, nutrient.Loamy, nutrient.Clay}
	priors      = []nutrient.Prior{nutrient.PriorNone, nutrient.PriorLow, nutrient.PriorMedium, nutrient.PriorHigh}
	fertBuckets = []nutrient.FertilizerRecency{nutrient.FertilizedUnder15, nutrient.Fertilized15To30, nutrient.FertilizedOver30}
	irrBuckets  = []nutrient.IrrigationRecency{nutrient.IrrigatedUnder7, nutrient.Irrigated7To20, nutrient.IrrigatedOver20}
	intensities = []nutrient.Intensity{nutrient.Light, nutrient.Normal, nutrient.Heavy}
)

func pick[T any](r *rand.Rand, xs []T) T { return xs[r.IntN(len(xs))] }

// Draw samples one labeled row using r.
func (s *Sampler) Draw(r *rand.Rand) (Record, error) {
	b := s.bounds
	in := nutrient.Inputs{
		Crop:                s.crop,
		Days:                b.MinDays + r.IntN(b.MaxDays-b.MinDays+1),
		Soil:                pick(r, soils),
		PriorN:              pick(r, priors),
		PriorP:              pick(r, priors),
		PriorK:              pick(r, priors),
		FertilizerRecency:   pick(r, fertBuckets),
		IrrigationRecency:   pick(r, irrBuckets),
		IrrigationIntensity: pick(r, intensities),
	}
	if s.crop == nutrient.Wheat {
		in.IrrigationCount = nutrient.Irrigations(r.IntN(b.MaxIrrigations + 1))
	}
	area := math.Round((b.MinArea+r.Float64()*(b.MaxArea-b.MinArea))*100) / 100
	return Label(in, area)
}

// Rows yields n rows drawn from a stream seeded with seed. Each range over
// the sequence restarts the stream, so the same rows come back every time.
func (s *Sampler) Rows(seed uint64, n int) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		r := newRand(seed, 0)
		for i := 0; i < n; i++ {
			rec, err := s.Draw(r)
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

func newRand(seed uint64, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// GenerateParallel draws n rows across workers goroutines. Worker i owns the
// PCG stream (seed, i), so the output depends only on seed, n and workers.
func (s *Sampler) GenerateParallel(ctx context.Context, seed uint64, n, workers int) ([]Record, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative row count %d", n)
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n && n > 0 {
		workers = n
	}

	out := make([]Record, n)
	chunk := (n + workers - 1) / max(workers, 1)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, n)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			r := newRand(seed, uint64(w))
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				rec, err := s.Draw(r)
				if err != nil {
					return err
				}
				out[i] = rec
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Collect drains a row sequence into a slice.
func Collect(rows iter.Seq2[Record, error]) ([]Record, error) {
	var out []Record
	for rec, err := range rows {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Slice adapts a slice to a row sequence.
func Slice(recs []Record) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, r := range recs {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Concat yields every row of each sequence in turn.
func Concat(seqs ...iter.Seq2[Record, error]) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, seq := range seqs {
			for rec, err := range seq {
				if !yield(rec, err) || err != nil {
					return
				}
			}
		}
	}
}
