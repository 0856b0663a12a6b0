package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/chazu/toroid/pkg/assembly"
	"github.com/chazu/toroid/pkg/config"
	"github.com/chazu/toroid/pkg/design"
	"github.com/chazu/toroid/pkg/engine"
	"github.com/chazu/toroid/pkg/export"
	"github.com/chazu/toroid/pkg/kernel"
	"github.com/chazu/toroid/pkg/kernel/sdfx"
	"github.com/chazu/toroid/pkg/neutronics"
	"github.com/chazu/toroid/pkg/reactor"
	"github.com/chazu/toroid/pkg/sweep"
	"github.com/chazu/toroid/pkg/tessellate"
)

// App runs the reactor pipeline: source, design, assemblies, meshes, files.
type App struct {
	cfg     *config.Config
	engine  *engine.Engine
	kernel  kernel.Kernel
	builder *reactor.Builder
	logger  *zap.Logger
}

// MeshData is the JSON-serializable form of one tessellated part.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Material string    `json:"material"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
	Reactor string `json:"reactor,omitempty"`
}

// EvalResult is the full result of Evaluate.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// SourceError reports that a source did not evaluate to a valid design.
type SourceError struct {
	Errors []EvalErrorData
}

func (e *SourceError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ee := range e.Errors {
		if ee.Line > 0 {
			msgs[i] = fmt.Sprintf("line %d: %s", ee.Line, ee.Message)
		} else {
			msgs[i] = ee.Message
		}
	}
	return strings.Join(msgs, "; ")
}

// NewApp creates an App on the sdfx kernel.
func NewApp(cfg *config.Config, logger *zap.Logger) *App {
	return newApp(cfg, sdfx.New(), logger)
}

func newApp(cfg *config.Config, k kernel.Kernel, logger *zap.Logger) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:     cfg,
		engine:  engine.NewEngine(engine.WithTimeout(cfg.EvalTimeout), engine.WithLogger(logger)),
		kernel:  k,
		builder: reactor.NewBuilder(k, logger),
		logger:  logger,
	}
}

// Evaluate takes reactor source and returns mesh data, errors and warnings.
// It never writes files.
func (a *App) Evaluate(ctx context.Context, source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	d, warnings, err := a.load(source)
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		var se *SourceError
		if errors.As(err, &se) {
			result.Errors = append(result.Errors, se.Errors...)
		} else {
			a.logger.Error("evaluate failed", zap.Error(err))
			result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		}
		return result
	}

	for _, r := range d.Reactors {
		meshes, _, _, err := a.mesh(ctx, r)
		if err != nil {
			a.logger.Error("reactor failed", zap.String("reactor", r.Name), zap.Error(err))
			result.Errors = append(result.Errors, EvalErrorData{Message: err.Error(), Reactor: r.Name})
			continue
		}
		for _, m := range meshes {
			result.Meshes = append(result.Meshes, MeshData{
				Vertices: m.Vertices,
				Normals:  m.Normals,
				Indices:  m.Indices,
				PartName: m.PartName,
				Material: m.Material,
				Color:    m.Color.Hex(),
			})
		}
	}
	return result
}

// load evaluates and validates source. Eval and validation errors come
// back as a *SourceError.
func (a *App) load(source string) (*design.Design, []EvalErrorData, error) {
	res, err := a.engine.EvaluateAll(source)
	if err != nil {
		return nil, nil, err
	}
	var warnings []EvalErrorData
	for _, w := range res.Warnings {
		warnings = append(warnings, EvalErrorData{Line: w.Line, Col: w.Col, Message: w.Message, Reactor: w.Reactor})
	}
	if len(res.Errors) > 0 {
		se := &SourceError{}
		for _, e := range res.Errors {
			se.Errors = append(se.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return nil, warnings, se
	}
	return res.Design, warnings, nil
}

// finish places an assembly built for r and strips r's removals.
func finish(asm *assembly.Assembly, r *design.Reactor) *assembly.Assembly {
	if !r.Location.IsIdentity() {
		asm = asm.Place(r.Location)
	}
	for _, name := range r.Remove {
		asm = asm.Remove(name)
	}
	return asm
}

// meshAssembly meshes a finished assembly with r's material tags.
func (a *App) meshAssembly(ctx context.Context, asm *assembly.Assembly, r *design.Reactor) ([]*kernel.Mesh, []string, error) {
	tags, err := r.Tags()
	if err != nil {
		return nil, nil, fmt.Errorf("reactor %s: %w", r.Name, err)
	}
	if tags, err = tessellate.Tags(asm, tags); err != nil {
		return nil, nil, fmt.Errorf("reactor %s: %w", r.Name, err)
	}
	meshes, err := tessellate.Tessellate(ctx, asm, a.kernel, a.tessellateOptions(tags))
	if err != nil {
		return nil, nil, fmt.Errorf("reactor %s: %w", r.Name, err)
	}
	return meshes, tags, nil
}

// mesh builds, finishes and tessellates a design reactor.
func (a *App) mesh(ctx context.Context, r *design.Reactor) ([]*kernel.Mesh, *assembly.Assembly, []string, error) {
	asm, err := a.builder.Build(ctx, r.Name, r.Request)
	if err != nil {
		return nil, nil, nil, err
	}
	asm = finish(asm, r)
	meshes, tags, err := a.meshAssembly(ctx, asm, r)
	if err != nil {
		return nil, nil, nil, err
	}
	return meshes, asm, tags, nil
}

func (a *App) tessellateOptions(tags []string) tessellate.Options {
	return tessellate.Options{
		Mesh:         a.cfg.Mesh.Options(),
		MaterialTags: tags,
		MergeByTag:   a.cfg.MergeByTag,
		Logger:       a.logger,
	}
}

// Names returns the part names left in every reactor of source after its
// removals, keyed by reactor name.
func (a *App) Names(source string) (map[string][]string, []EvalErrorData, error) {
	d, warnings, err := a.load(source)
	if err != nil {
		return nil, warnings, err
	}
	out := make(map[string][]string, d.Len())
	for _, r := range d.Reactors {
		names, err := r.PartNames()
		if err != nil {
			return nil, warnings, fmt.Errorf("reactor %s: %w", r.Name, err)
		}
		out[r.Name] = names
	}
	return out, warnings, nil
}

// BuildOptions selects what Build writes besides the meshes.
type BuildOptions struct {
	Plan     bool // write a neutronics plan per reactor
	Facility bool // surround the reactor with the configured facility
	Point    bool // add a point source to the plan
}

// ReactorOutput describes the files written for one reactor.
type ReactorOutput struct {
	Name        string        `json:"name"`
	MeshPath    string        `json:"mesh_path"`
	PlanPath    string        `json:"plan_path,omitempty"`
	Parts       []string      `json:"parts"`
	Tags        []string      `json:"tags"`
	Meshes      int           `json:"meshes"`
	BoundingBox [2][3]float64 `json:"bounding_box"`
}

// BuildReport is the outcome of Build.
type BuildReport struct {
	Reactors []ReactorOutput `json:"reactors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// Build evaluates source and writes one 3MF file per reactor, plus a plan
// when asked, into the configured output directory.
func (a *App) Build(ctx context.Context, source string, opts BuildOptions) (*BuildReport, error) {
	d, warnings, err := a.load(source)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	report := &BuildReport{Warnings: warnings}
	for _, r := range d.Reactors {
		out, err := a.buildReactor(ctx, r, opts)
		if err != nil {
			return nil, err
		}
		report.Reactors = append(report.Reactors, out)
	}
	return report, nil
}

func (a *App) buildReactor(ctx context.Context, r *design.Reactor, opts BuildOptions) (ReactorOutput, error) {
	meshes, asm, tags, err := a.mesh(ctx, r)
	if err != nil {
		return ReactorOutput{}, err
	}
	min, max, err := asm.BoundingBox()
	if err != nil {
		return ReactorOutput{}, fmt.Errorf("reactor %s: %w", r.Name, err)
	}

	out := ReactorOutput{
		Name:        r.Name,
		MeshPath:    filepath.Join(a.cfg.OutputDir, fileName(r.Name)+".3mf"),
		Parts:       asm.Names(),
		Tags:        tags,
		Meshes:      len(meshes),
		BoundingBox: [2][3]float64{min, max},
	}
	if err := export.Write3MF(out.MeshPath, meshes); err != nil {
		return ReactorOutput{}, fmt.Errorf("reactor %s: %w", r.Name, err)
	}

	if opts.Plan {
		popts := neutronics.PlanOptions{Point: opts.Point, Settings: a.cfg.Transport}
		if opts.Facility {
			f := a.cfg.Facility
			popts.Facility = &f
		}
		plan, err := neutronics.NewPlan(r.Name, asm, tags, popts)
		if err != nil {
			return ReactorOutput{}, err
		}
		out.PlanPath = filepath.Join(a.cfg.OutputDir, fileName(r.Name)+".plan.json")
		if err := writePlan(out.PlanPath, plan); err != nil {
			return ReactorOutput{}, fmt.Errorf("reactor %s: %w", r.Name, err)
		}
	}

	a.logger.Info("reactor written",
		zap.String("reactor", r.Name),
		zap.String("path", out.MeshPath),
		zap.Int("meshes", out.Meshes),
	)
	return out, nil
}

func writePlan(path string, plan *neutronics.Plan) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return plan.WriteJSON(f)
}

// Sweep builds the frames of a parameter sweep of one reactor and writes a
// 3MF file per frame under <output>/<reactor>/. An empty name selects the
// first reactor of the source.
func (a *App) Sweep(ctx context.Context, source, name string) (*sweep.Report, error) {
	d, _, err := a.load(source)
	if err != nil {
		return nil, err
	}
	if d.Len() == 0 {
		return nil, errors.New("sweep: source defines no reactor")
	}
	r := d.Reactors[0]
	if name != "" {
		if r = d.Lookup(name); r == nil {
			return nil, fmt.Errorf("sweep: no reactor named %q", name)
		}
	}

	dir := filepath.Join(a.cfg.OutputDir, fileName(r.Name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	variants := sweep.Variants(r.Request, a.cfg.Sweep.Factors)
	return sweep.Run(ctx, a.builder, r.Name, variants, sweep.Options{
		Concurrency: a.cfg.Sweep.Concurrency,
		Logger:      a.logger,
		Each: func(ctx context.Context, res sweep.Result) error {
			meshes, _, err := a.meshAssembly(ctx, finish(res.Assembly, r), r)
			if err != nil {
				return err
			}
			return export.Write3MF(filepath.Join(dir, res.Name()+".3mf"), meshes)
		},
	})
}

// fileName makes a reactor name safe to use as a file name.
func fileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return reactor.DefaultName
	}
	return name
}
