// Package parser turns C++ headers, clang AST dumps or serialized models into
// a resolved declaration tree.
package parser

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cmmoran/aboutgen/internal/logger"
	"github.com/cmmoran/aboutgen/internal/model"
	"github.com/cmmoran/aboutgen/pkg/parser"
)

// ErrNoInputs is returned when a header-reading provider has nothing to read.
var ErrNoInputs = errors.New("no input headers")

// Provider produces an unresolved declaration tree: field types carry only
// the type name as spelled in the source.
type Provider interface {
	Name() string
	Load(ctx context.Context, files []string) (*model.Root, error)
}

// Parser holds state/results of a parse run.
type Parser struct {
	Opts parser.Options

	log      *zap.Logger
	provider Provider
	files    []string
}

// New builds a Parser from functional options.
func New(opts ...parser.Option) (*Parser, error) {
	return NewWithOpts(parser.Apply(opts...), nil)
}

func NewWithOpts(opts *parser.Options, log *zap.Logger) (*Parser, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}
	p := &Parser{
		Opts: *opts,
		log:  logger.OrNop(log),
	}

	switch opts.Provider {
	case parser.ProviderTreeSitter:
		p.provider = newTreeSitterProvider(p.log)
	case parser.ProviderClang:
		p.provider = newClangProvider(opts.ClangPath, opts.ClangArgs, opts.ClangAST, p.log)
	case parser.ProviderModel:
		p.provider = newModelFileProvider(opts.ModelFile)
	default:
		return nil, errors.Wrapf(parser.ErrUnknownProvider, "%q", opts.Provider)
	}
	return p, nil
}

// Parse loads the declaration tree from the configured provider, merges and
// filters it, resolves field types and validates the result.
func (p *Parser) Parse(ctx context.Context) (*model.Root, error) {
	files, err := p.inputFiles()
	if err != nil {
		return nil, err
	}
	p.files = files

	p.log.Debug("loading declarations",
		zap.String(logger.FieldProvider, p.provider.Name()),
		zap.Int(logger.FieldCount, len(files)),
	)
	raw, err := p.provider.Load(ctx, files)
	if err != nil {
		return nil, errors.Wrapf(err, "%s provider", p.provider.Name())
	}

	root := NewBuilder(&p.Opts, p.log).Build(raw)
	if err := model.Validate(root); err != nil {
		return nil, err
	}
	return root, nil
}

// Files returns the header files the last Parse read, in input order.
func (p *Parser) Files() []string {
	return p.files
}

// Includes returns the paths generated documents should include: the
// configured include paths, else the discovered headers, else the inputs.
func (p *Parser) Includes() []string {
	if len(p.Opts.IncludePaths) > 0 {
		return p.Opts.IncludePaths
	}
	if len(p.files) > 0 {
		return p.files
	}
	return p.Opts.Inputs
}

func (p *Parser) inputFiles() ([]string, error) {
	switch {
	case p.Opts.Provider == parser.ProviderModel:
		return p.Opts.Inputs, nil
	case p.Opts.Provider == parser.ProviderClang && p.Opts.ClangAST != "":
		// a pre-dumped AST only uses inputs to filter declarations by file
		return p.Opts.Inputs, nil
	}
	if len(p.Opts.Inputs) == 0 {
		return nil, ErrNoInputs
	}
	files, err := Discover(p.Opts.Inputs, p.Opts.RespectGitignore)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.WithHintf(
			errors.Wrapf(ErrNoInputs, "%v", p.Opts.Inputs),
			"header files end in one of %v", headerExtensions,
		)
	}
	return files, nil
}
