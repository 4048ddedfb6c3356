// Package generate runs one generation pass: parse, render every requested
// artifact, then write them.
package generate

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cmmoran/aboutgen/internal/emit"
	"github.com/cmmoran/aboutgen/internal/logger"
	"github.com/cmmoran/aboutgen/internal/model"
	iparser "github.com/cmmoran/aboutgen/internal/parser"
	"github.com/cmmoran/aboutgen/internal/version"
	"github.com/cmmoran/aboutgen/pkg/manifest"
	"github.com/cmmoran/aboutgen/pkg/parser"
)

// Console is the output value that sends an artifact to standard output.
const Console = "-"

// ErrNothingRequested is returned when no artifact is selected.
var ErrNothingRequested = errors.New("no artifact requested")

// Artifact is one rendered document.
type Artifact struct {
	Kind   emit.Kind
	File   string // empty when written to the console
	Target string // identifier the guard is derived from
	Guard  string
	Stats  emit.Stats

	Content []byte
}

// Console reports whether the artifact goes to standard output.
func (a Artifact) Console() bool { return a.File == "" }

// Report describes a completed run.
type Report struct {
	Provider  parser.Provider
	Includes  []string
	Artifacts []Artifact
}

// Generate writes every requested artifact, sending console artifacts to
// os.Stdout.
func Generate(ctx context.Context, opts *parser.Options, log *zap.Logger) (*Report, error) {
	return GenerateTo(ctx, opts, log, os.Stdout)
}

// GenerateTo is Generate with an explicit console writer.
func GenerateTo(ctx context.Context, opts *parser.Options, log *zap.Logger, console io.Writer) (*Report, error) {
	log = logger.OrNop(log)
	report, err := Build(ctx, opts, log)
	if err != nil {
		return nil, err
	}

	for _, a := range report.Artifacts {
		if err := write(a, console); err != nil {
			return report, err
		}
		log.Info("artifact written",
			zap.Stringer(logger.FieldArtifact, a.Kind),
			zap.String(logger.FieldTarget, a.Target),
			zap.Int(logger.FieldBytes, len(a.Content)),
		)
	}

	if opts.Manifest != "" {
		if err := record(opts.Manifest, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

// Build parses the inputs and renders every requested artifact in memory.
// Nothing is written, so a failing model leaves existing artifacts untouched.
func Build(ctx context.Context, opts *parser.Options, log *zap.Logger) (*Report, error) {
	log = logger.OrNop(log)
	p, err := iparser.NewWithOpts(opts, log)
	if err != nil {
		return nil, err
	}
	if !p.Opts.WantsAny() {
		return nil, errors.WithHint(ErrNothingRequested,
			"name an output for --reflect, --meta or --enum-ostream, or pass --debug")
	}
	reqs := requests(&p.Opts)

	root, err := p.Parse(ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := config(&p.Opts)
	if err != nil {
		return nil, err
	}
	report := &Report{Provider: p.Opts.Provider, Includes: p.Includes()}
	report.Artifacts, err = Render(root, reqs, report.Includes, cfg, log)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Request selects one artifact kind and its destination file; an empty File
// means the console.
type Request struct {
	Kind emit.Kind
	File string
}

func requests(opts *parser.Options) []Request {
	var out []Request
	for _, k := range emit.Kinds {
		file := outputFor(opts, k)
		switch {
		case file == Console:
			out = append(out, Request{Kind: k})
		case file != "":
			out = append(out, Request{Kind: k, File: filepath.ToSlash(filepath.Clean(file))})
		case opts.Debug:
			out = append(out, Request{Kind: k})
		}
	}
	return out
}

func outputFor(opts *parser.Options, k emit.Kind) string {
	switch k {
	case emit.KindReflect:
		return opts.OutputReflect
	case emit.KindMeta:
		return opts.OutputMeta
	case emit.KindEnumOstream:
		return opts.OutputEnumOstream
	}
	return ""
}

func config(opts *parser.Options) (emit.Config, error) {
	labels, err := emit.ParseLabelStyle(opts.LabelStyle)
	if err != nil {
		return emit.Config{}, err
	}
	naming, err := emit.ParseWrapperNaming(opts.WrapperNaming)
	if err != nil {
		return emit.Config{}, err
	}
	return emit.Config{LabelStyle: labels, WrapperNaming: naming}, nil
}

// Render assembles each request over the same declaration tree. Any error
// aborts the whole pass.
func Render(root *model.Root, reqs []Request, includes []string, cfg emit.Config, log *zap.Logger) ([]Artifact, error) {
	asm := emit.NewAssembler(cfg, log)
	out := make([]Artifact, 0, len(reqs))
	for _, r := range reqs {
		doc := emit.Document{Kind: r.Kind, Target: r.File, Includes: includes}
		if doc.Target == "" {
			doc.Target = r.Kind.DefaultTarget()
		}
		content, stats, err := asm.Render(root, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, Artifact{
			Kind:    r.Kind,
			File:    r.File,
			Target:  doc.Target,
			Guard:   doc.Guard(),
			Stats:   stats,
			Content: content,
		})
	}
	return out, nil
}

func write(a Artifact, console io.Writer) error {
	if a.Console() {
		if _, err := console.Write(a.Content); err != nil {
			return errors.Mark(errors.Wrapf(err, "write %s artifact to console", a.Kind), emit.ErrSink)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(a.File), 0o755); err != nil {
		return errors.Mark(errors.Wrapf(err, "create directory for %q", a.File), emit.ErrSink)
	}
	if err := os.WriteFile(a.File, a.Content, 0o644); err != nil {
		return errors.Mark(errors.Wrapf(err, "write %q", a.File), emit.ErrSink)
	}
	return nil
}

func record(path string, report *Report) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	if err := m.CheckCompatible(version.Version); err != nil {
		return err
	}
	m.GeneratorVersion = version.Version
	for _, a := range report.Artifacts {
		if a.Console() {
			continue
		}
		m.AddArtifact(manifest.Artifact{
			Kind:   a.Kind.String(),
			File:   a.File,
			Guard:  a.Guard,
			Inputs: report.Includes,
			Bytes:  len(a.Content),
		})
	}
	return m.Save(path)
}
