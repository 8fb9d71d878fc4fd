package enhance

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sqlshield/sqlshield/migration"
)

// Confirmer decides whether a confirmation-gated module may rewrite the
// script. The CLI wires an interactive prompt; non-interactive callers use
// AutoApprove.
type Confirmer interface {
	Confirm(e *Enhancement, a Analysis) bool
}

// AutoApprove confirms every module.
type AutoApprove struct{}

func (AutoApprove) Confirm(*Enhancement, Analysis) bool { return true }

// ModuleAnalysis pairs a module with its analysis of one migration.
type ModuleAnalysis struct {
	Module   Module
	Analysis Analysis
}

// PipelineResult is the aggregate outcome of a full enhancement run.
type PipelineResult struct {
	Content  string
	Results  []Result
	Warnings []string
}

// Engine orchestrates the enhancement pipeline over a static catalog.
type Engine struct {
	registry  *Registry
	confirmer Confirmer
}

// NewEngine builds an engine over the given catalog. A nil confirmer
// auto-approves.
func NewEngine(r *Registry, c Confirmer) *Engine {
	if c == nil {
		c = AutoApprove{}
	}
	return &Engine{registry: r, confirmer: c}
}

// DetectSafetyEnhancements analyzes the migration with every registered
// module and returns the applicable ones in pipeline order: safety before
// performance before others, then priority descending, ties broken by
// registration order. The order is part of the contract; two runs over the
// same input always agree.
//
// Analysis is content-only and side-effect-free, so the gather runs all
// modules concurrently. A module that panics contributes a non-applicable
// analysis instead of aborting the run.
func (e *Engine) DetectSafetyEnhancements(f *migration.File) []ModuleAnalysis {
	selected, _ := e.gather(f)
	return selected
}

func (e *Engine) gather(f *migration.File) ([]ModuleAnalysis, []string) {
	mods := e.registry.Modules()
	analyses := make([]Analysis, len(mods))
	panics := make([]string, len(mods))

	var wg sync.WaitGroup
	for i, m := range mods {
		wg.Add(1)
		go func(i int, m Module) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					analyses[i] = notApplicable()
					panics[i] = fmt.Sprintf("%s: analyze failed: %v", m.Enhancement().ID, r)
				}
			}()
			analyses[i] = m.Analyze(f)
		}(i, m)
	}
	wg.Wait()

	var warnings []string
	for _, p := range panics {
		if p != "" {
			warnings = append(warnings, p)
		}
	}

	var selected []ModuleAnalysis
	for i, m := range mods {
		if analyses[i].Applicable {
			selected = append(selected, ModuleAnalysis{Module: m, Analysis: analyses[i]})
		}
	}

	sort.SliceStable(selected, func(a, b int) bool {
		ea, eb := selected[a].Module.Enhancement(), selected[b].Module.Enhancement()
		if ra, rb := categoryRank(ea.Category), categoryRank(eb.Category); ra != rb {
			return ra < rb
		}
		return ea.Priority > eb.Priority
	})

	return selected, warnings
}

// Enhance runs the full pipeline: gather, select and order, gate on
// confirmation, then apply sequentially. Each module's Apply receives the
// previous module's output and re-scans it for its own trigger, so edits
// made earlier in the pipeline are accounted for. A module failing
// internally is converted to a not-applied result with a warning; the
// remaining modules still run.
func (e *Engine) Enhance(f *migration.File) PipelineResult {
	selected, warnings := e.gather(f)

	content := f.Up
	var results []Result
	for _, ma := range selected {
		meta := ma.Module.Enhancement()

		if meta.RequiresConfirmation && !e.confirmer.Confirm(meta, ma.Analysis) {
			results = append(results, unapplied(meta, content,
				fmt.Sprintf("%s: skipped, not confirmed", meta.ID)))
			continue
		}

		res := safeApply(ma.Module, content, f)
		if res.Applied {
			content = res.ModifiedContent
		}
		results = append(results, res)
	}

	for _, res := range results {
		warnings = append(warnings, res.Warnings...)
	}

	return PipelineResult{Content: content, Results: results, Warnings: warnings}
}

func safeApply(m Module, content string, f *migration.File) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = unapplied(m.Enhancement(), content,
				fmt.Sprintf("%s: apply failed: %v", m.Enhancement().ID, r))
		}
	}()
	return m.Apply(content, f)
}

// GenerateRollback returns the reverse script for the migration. An
// explicit "-- rollback" section is returned verbatim; otherwise a
// best-effort inverse is synthesized from the forward text.
func (e *Engine) GenerateRollback(f *migration.File) string {
	if f.Down != "" {
		return f.Down
	}
	return SynthesizeRollback(f.Up)
}
