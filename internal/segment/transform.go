package segment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SkipReason explains why a feature produced no segment.
type SkipReason string

const (
	SkipMalformed     SkipReason = "malformed"
	SkipEmptyGeometry SkipReason = "empty_geometry"
	SkipPanic         SkipReason = "panic"
)

// Result is the outcome of transforming one feature: exactly one of Segment
// or Skip is set.
type Result struct {
	Index   int
	Segment *Segment
	Skip    SkipReason
	Detail  string
}

// OK reports whether the feature produced a segment.
func (r Result) OK() bool { return r.Segment != nil }

// Transformer converts raw features into segments under a fixed rule set.
// It holds no mutable state and is safe for concurrent use.
type Transformer struct {
	rules   *Rules
	streets PopUpStreets
	now     func() time.Time
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Transformer) { t.now = now }
}

// NewTransformer creates a Transformer. A nil rules value uses DefaultRules;
// an empty street set limits pop-up detection to property text.
func NewTransformer(rules *Rules, streets PopUpStreets, opts ...Option) *Transformer {
	if rules == nil {
		rules = DefaultRules()
	}
	t := &Transformer{
		rules:   rules,
		streets: streets,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Rules returns the transformer's rule set.
func (t *Transformer) Rules() *Rules { return t.rules }

// Transform builds the segment for the feature at position index. A panic
// while transforming is recovered and reported as SkipPanic.
func (t *Transformer) Transform(index int, f RawFeature, at time.Time) (res Result) {
	res.Index = index
	defer func() {
		if r := recover(); r != nil {
			res = Result{Index: index, Skip: SkipPanic, Detail: fmt.Sprint(r)}
		}
	}()

	if f.Malformed != "" {
		return Result{Index: index, Skip: SkipMalformed, Detail: f.Malformed}
	}

	coords := ExtractCoordinates(f.Geometry)
	center, ok := Center(coords)
	if !ok {
		geomType := "<nil>"
		if f.Geometry != nil {
			geomType = f.Geometry.Type
		}
		return Result{Index: index, Skip: SkipEmptyGeometry, Detail: "geometry type " + geomType}
	}

	props := f.Properties
	text := props.Text()
	ft := Classify(props, t.rules)
	scores := Score(ft, props, t.rules)
	popUp := IsPopUp(props, text, t.streets, t.rules)

	roadName, ok := props.FirstString(t.rules.RoadNameKeys...)
	if !ok {
		roadName = "Unknown"
	}

	res.Segment = &Segment{
		ID:                   t.segmentID(props, index),
		RoadName:             roadName,
		LocalArea:            Locate(center, t.rules),
		FacilityType:         ft,
		IsPopUp:              popUp,
		SpeedEnvKmh:          SpeedEnvironment(props, t.rules),
		LaneWidthM:           scores.Width,
		GradientClass:        DefaultGradientClass,
		LightingQuality:      DefaultLightingQuality,
		PopularityScore:      DefaultPopularityScore,
		CrashRiskScore:       scores.Risk,
		ComfortScore:         scores.Comfort,
		PerceivedSafetyScore: scores.PerceivedSafety,
		Tags:                 GenerateTags(ft, text, popUp),
		Coordinates:          coords,
		Center:               center,
		CreatedAt:            at,
		UpdatedAt:            at,
	}
	return res
}

func (t *Transformer) segmentID(props Properties, index int) string {
	if id, ok := props.FirstString(t.rules.IDKeys...); ok {
		return "seg_" + id
	}
	return "seg_" + strconv.Itoa(index)
}

// TransformAll transforms features in order and returns the segments plus
// the results of every skipped feature. All segments share one timestamp.
func (t *Transformer) TransformAll(features []RawFeature) ([]Segment, []Result) {
	at := t.now()
	results := make([]Result, len(features))
	for i, f := range features {
		results[i] = t.Transform(i, f, at)
	}
	return collect(results)
}

// TransformParallel is TransformAll fanned out over at most workers
// goroutines. Output order matches input order. It returns early with the
// context error if ctx is cancelled.
func (t *Transformer) TransformParallel(ctx context.Context, features []RawFeature, workers int) ([]Segment, []Result, error) {
	if workers <= 1 {
		segs, skipped := t.TransformAll(features)
		return segs, skipped, nil
	}

	at := t.now()
	results := make([]Result, len(features))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range features {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = t.Transform(i, f, at)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	segs, skipped := collect(results)
	return segs, skipped, nil
}

func collect(results []Result) ([]Segment, []Result) {
	log := zap.L().With(zap.String("component", "segment.transform"))

	segs := make([]Segment, 0, len(results))
	var skipped []Result
	for _, r := range results {
		if r.OK() {
			segs = append(segs, *r.Segment)
			continue
		}
		skipped = append(skipped, r)
		log.Debug("feature skipped",
			zap.Int("index", r.Index),
			zap.String("reason", string(r.Skip)),
			zap.String("detail", r.Detail),
		)
	}

	log.Info("transform complete",
		zap.Int("features", len(results)),
		zap.Int("segments", len(segs)),
		zap.Int("skipped", len(skipped)),
	)
	return segs, skipped
}
