// Package check compares artifacts on disk with freshly rendered ones.
package check

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/cmmoran/aboutgen/internal/emit"
	"github.com/cmmoran/aboutgen/internal/logger"
	"github.com/cmmoran/aboutgen/internal/version"
	"github.com/cmmoran/aboutgen/pkg/action/generate"
	"github.com/cmmoran/aboutgen/pkg/manifest"
	"github.com/cmmoran/aboutgen/pkg/parser"
)

// ErrStale is returned when at least one artifact differs from what the
// current inputs generate.
var ErrStale = errors.New("generated artifact is stale")

// Stale is one out-of-date artifact.
type Stale struct {
	Kind emit.Kind
	File string
	Diff string // -on disk +regenerated
}

// Result lists the files compared and those that differ.
type Result struct {
	Checked []string
	Stale   []Stale
}

// Check regenerates every requested file artifact in memory and diffs it
// against the file on disk. Outputs not set in opts are taken from the
// manifest, when one is configured.
func Check(ctx context.Context, opts *parser.Options, log *zap.Logger) (*Result, error) {
	log = logger.OrNop(log)
	if opts.Manifest != "" {
		m, err := manifest.Load(opts.Manifest)
		if err != nil {
			return nil, err
		}
		if err := m.CheckCompatible(version.Version); err != nil {
			return nil, err
		}
		fillFromManifest(opts, m)
	}

	report, err := generate.Build(ctx, opts, log)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, a := range report.Artifacts {
		if a.Console() {
			continue
		}
		res.Checked = append(res.Checked, a.File)

		onDisk, err := os.ReadFile(a.File)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(err, "read %q", a.File)
		}
		if diff := cmp.Diff(string(onDisk), string(a.Content)); diff != "" {
			log.Debug("artifact is stale", zap.String(logger.FieldTarget, a.File))
			res.Stale = append(res.Stale, Stale{Kind: a.Kind, File: a.File, Diff: diff})
		}
	}

	if len(res.Stale) > 0 {
		return res, errors.Wrapf(ErrStale, "%d of %d artifacts", len(res.Stale), len(res.Checked))
	}
	return res, nil
}

func fillFromManifest(opts *parser.Options, m *manifest.Manifest) {
	fill := func(dst *string, k emit.Kind) {
		if *dst == "" {
			*dst = m.ArtifactFile(k.String())
		}
	}
	fill(&opts.OutputReflect, emit.KindReflect)
	fill(&opts.OutputMeta, emit.KindMeta)
	fill(&opts.OutputEnumOstream, emit.KindEnumOstream)
}
