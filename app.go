package main

import (
	"path/filepath"
	"strings"

	"github.com/chazu/bimzone/pkg/config"
	"github.com/chazu/bimzone/pkg/engine"
	"github.com/chazu/bimzone/pkg/kernel"
	"github.com/chazu/bimzone/pkg/kernel/scene"
	"github.com/chazu/bimzone/pkg/kernel/sdfx"
	"github.com/chazu/bimzone/pkg/model"
	"github.com/chazu/bimzone/pkg/pipeline"
	"github.com/chazu/bimzone/pkg/tessellate"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// colorPalette assigns a color to each mesh category.
var colorPalette = map[string]string{
	tessellate.CategoryRoom:     "#4A90D9",
	tessellate.CategoryAperture: "#1ABC9C",
	tessellate.CategoryDoor:     "#E67E22",
	tessellate.CategoryShade:    "#9B59B6",
	tessellate.CategoryFace:     "#95A5A6",
}

// App ties the kernels, the conversion pipeline and the exporters
// together. The CLI commands are thin wrappers around its methods.
type App struct {
	engine *engine.Engine
	mesher kernel.Mesher
	log    logrus.FieldLogger
}

// MeshData is the JSON-serializable mesh format for previews.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Category string    `json:"category"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the preview of a scene script after conversion.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
	Counts   model.Counts    `json:"counts"`
}

// ConvertOptions selects the outputs of a conversion.
type ConvertOptions struct {
	Config config.Config
	// Output is the model JSON path. Empty derives it from the input.
	Output string
	// DXF and STL are optional extra exports.
	DXF string
	STL string
	// Scene writes the model back as a scene file (.json or .msgpack).
	Scene string
}

// ConvertResult is what a conversion produced.
type ConvertResult struct {
	Model   *model.Model
	Report  *pipeline.Report
	Written []string
}

// NewApp creates an App logging to log.
func NewApp(log logrus.FieldLogger) *App {
	if log == nil {
		log = config.DiscardLogger()
	}
	return &App{
		engine: engine.NewEngine(),
		mesher: sdfx.New(),
		log:    log,
	}
}

// kernelFor picks the loader from the file extension: scene scripts go to
// the Lisp engine, everything else to the scene file codec.
func (a *App) kernelFor(path string) (kernel.Kernel, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zy", ".bimz":
		return a.engine, nil
	}
	if _, err := scene.FormatForPath(path); err != nil {
		return nil, err
	}
	return scene.Kernel{}, nil
}

// Load opens a building document.
func (a *App) Load(path string) (kernel.Document, error) {
	k, err := a.kernelFor(path)
	if err != nil {
		return nil, err
	}
	return k.Load(path)
}

// Convert loads path, runs the pipeline and writes the requested outputs.
func (a *App) Convert(path string, opts ConvertOptions) (*ConvertResult, error) {
	doc, err := a.Load(path)
	if err != nil {
		return nil, err
	}
	m, report, err := pipeline.Run(doc, opts.Config, a.log)
	if err != nil {
		return nil, err
	}
	res := &ConvertResult{Model: m, Report: report}

	out := opts.Output
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".model.json"
	}
	if err := model.SaveJSON(out, m); err != nil {
		return res, err
	}
	res.Written = append(res.Written, out)

	if opts.DXF != "" {
		if err := model.SaveDXF(opts.DXF, m); err != nil {
			return res, err
		}
		res.Written = append(res.Written, opts.DXF)
	}
	if opts.STL != "" {
		if err := tessellate.SaveSTL(opts.STL, m); err != nil {
			return res, err
		}
		res.Written = append(res.Written, opts.STL)
	}
	if opts.Scene != "" {
		if err := model.SaveScene(opts.Scene, m); err != nil {
			return res, err
		}
		res.Written = append(res.Written, opts.Scene)
	}

	a.log.WithFields(logrus.Fields{"input": path, "outputs": res.Written}).Info("Conversion written")
	return res, nil
}

// Validate loads path and runs the structural scene checks.
func (a *App) Validate(path string, tol config.Tolerances) (scene.ValidationResult, error) {
	doc, err := a.Load(path)
	if err != nil {
		return scene.ValidationResult{}, err
	}
	s, ok := doc.(*scene.Scene)
	if !ok {
		return scene.ValidationResult{}, errors.Errorf("%s: document cannot be validated", path)
	}
	return scene.Validate(s, tol.Linear), nil
}

// Evaluate takes scene script source, converts it and returns the model
// as render meshes together with any errors.
func (a *App) Evaluate(source string, cfg config.Config) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the script into a scene.
	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.log.WithError(err).Error("Evaluate fatal error")
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 2: Structural problems are warnings unless they block conversion.
	check := scene.Validate(s, cfg.Tolerances.Linear)
	for _, w := range check.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.Error()})
	}
	if !check.OK() {
		for _, e := range check.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Message: e.Error()})
		}
		return result
	}

	// Step 3: Convert the scene.
	m, report, err := pipeline.Run(s, cfg, a.log)
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: "conversion failed: " + err.Error()})
		return result
	}
	for _, o := range report.Skipped() {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Message: o.Kind.String() + " " + o.GUID + " skipped: " + o.Failure,
		})
	}
	result.Counts = m.Counts()

	// Step 4: Tessellate the model into render meshes.
	meshes, err := tessellate.Tessellate(m, a.mesher)
	if err != nil {
		a.log.WithError(err).Error("Tessellate error")
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}
	for _, mesh := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: mesh.Vertices,
			Normals:  mesh.Normals,
			Indices:  mesh.Indices,
			PartName: mesh.Name,
			Category: mesh.Category,
			Color:    colorPalette[mesh.Category],
		})
	}
	return result
}
