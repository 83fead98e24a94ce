package main

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Carmen-Shannon/eyengine/engine/loader"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/muesli/termenv"
)

// reporter prints one PASS or FAIL line per pipeline and, under each failure, the mismatches
// with the shader line they point at.
type reporter struct {
	out      *termenv.Output
	manifest *loader.Manifest
}

func newReporter(out *termenv.Output, m *loader.Manifest) *reporter {
	return &reporter{out: out, manifest: m}
}

func (r *reporter) pass(s string) string {
	return r.out.String(s).Foreground(r.out.Color("2")).Bold().String()
}

func (r *reporter) fail(s string) string {
	return r.out.String(s).Foreground(r.out.Color("1")).Bold().String()
}

func (r *reporter) faint(s string) string {
	return r.out.String(s).Faint().String()
}

// report returns the number of failed pipelines.
func (r *reporter) report(results []loader.Result) int {
	failed := 0
	for _, res := range results {
		if res.Err == nil {
			fmt.Fprintf(r.out, "%s %s %s\n", r.pass("PASS"), res.Key, r.faint(summary(res.Descriptor)))
			continue
		}
		failed++
		fmt.Fprintf(r.out, "%s %s\n", r.fail("FAIL"), res.Key)

		errs := pipeline.Mismatches(res.Err)
		if len(errs) == 0 {
			errs = []error{res.Err}
		}
		spec, _ := r.manifest.Pipeline(res.Key)
		for _, err := range errs {
			fmt.Fprintf(r.out, "    %s\n", err)
			if path, line, ok := r.locate(spec, err); ok {
				r.snippet(path, line)
			}
		}
	}
	fmt.Fprintf(r.out, "%d pipelines, %d failed\n", len(results), failed)
	return failed
}

func summary(d pipeline.Descriptor) string {
	if d == nil {
		return ""
	}
	s := fmt.Sprintf("(%s, %d inputs, %d resources", d.Type(), len(d.Assignments()), len(d.Resources()))
	if cam, ok := d.Camera(); ok {
		s += fmt.Sprintf(", camera at %d/%d", cam.Group, cam.Binding)
	}
	return s + ")"
}

// locate finds the shader file and 1-based line an error refers to.
func (r *reporter) locate(spec loader.PipelineSpec, err error) (string, int, bool) {
	var pe *shader.ParseError
	if errors.As(err, &pe) && pe.Line > 0 {
		return pe.Path, pe.Line, true
	}

	var files []string
	var pattern *regexp.Regexp
	var lm *pipeline.LayoutMismatchError
	var bm *pipeline.BindingMismatchError
	switch {
	case errors.As(err, &lm):
		files = []string{spec.Vertex}
		if lm.Reason == pipeline.LayoutReasonStageLink {
			files = []string{spec.Fragment}
		}
		pattern = locationPattern(lm.Location)
	case errors.As(err, &bm):
		files = []string{spec.Vertex, spec.Fragment, spec.Compute}
		pattern = bindingPattern(bm.Group, bm.Binding)
	default:
		return "", 0, false
	}

	for _, rel := range files {
		if rel == "" {
			continue
		}
		path := r.manifest.Resolve(rel)
		data, err := r.manifest.ReadResolved(path)
		if err != nil {
			continue
		}
		if line := findLine(string(data), pattern); line > 0 {
			return path, line, true
		}
	}
	return "", 0, false
}

func locationPattern(loc uint32) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`@location\(\s*%d\s*\)|location\s*=\s*%d\b`, loc, loc))
}

func bindingPattern(group, binding uint32) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(
		`@group\(\s*%d\s*\)\s*@binding\(\s*%d\s*\)|set\s*=\s*%d\s*,\s*binding\s*=\s*%d\b|//@eye:(group|provider)\s+%d\s+%d\b`,
		group, binding, group, binding, group, binding))
}

// findLine returns the 1-based line of the first match of re, 0 if none.
func findLine(src string, re *regexp.Regexp) int {
	for i, line := range strings.Split(src, "\n") {
		if re.MatchString(line) {
			return i + 1
		}
	}
	return 0
}
