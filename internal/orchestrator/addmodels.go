package orchestrator

import (
	"fmt"

	"github.com/orbitfold/constellation-sim/internal/model"
)

// buildModels constructs every model entry for a node, in config order,
// the Go analogue of orchestrator.py's _add_Models: each model is checked
// against the owning node's kind, a duplicate name is a hard failure (no
// two Models on a node may share a name), and each model's declared
// dependency classes (an AND of OR-slots over sibling model names) must
// already be satisfied by the models built so far for this same node.
func buildModels(ctx *buildContext, cfgs []ModelConfig) ([]model.Model, error) {
	seen := make(map[string]bool, len(cfgs))
	for _, cfg := range cfgs {
		factory, ok := registry[cfg.IName]
		if !ok {
			return nil, fmt.Errorf("unknown model type %q", cfg.IName)
		}

		m, err := factory(ctx, cfg.Raw)
		if err != nil {
			return nil, err
		}

		if kinds := m.SupportedNodeKinds(); len(kinds) > 0 {
			if !containsString(kinds, ctx.node.Kind.String()) {
				return nil, fmt.Errorf("model %s does not support node kind %s", m.Name(), ctx.node.Kind)
			}
		}

		if seen[m.Name()] {
			return nil, fmt.Errorf("duplicate model name %q on node %d", m.Name(), ctx.node.ID)
		}
		seen[m.Name()] = true

		if err := checkDependencies(m, ctx.built); err != nil {
			return nil, fmt.Errorf("model %s: %w", m.Name(), err)
		}

		ctx.built = append(ctx.built, m)
	}
	return ctx.built, nil
}

// checkDependencies verifies every AND-slot of deps has at least one
// matching name among built's models' names.
func checkDependencies(m model.Model, built []model.Model) error {
	builtNames := make(map[string]bool, len(built))
	for _, b := range built {
		builtNames[b.Name()] = true
	}
	for _, slot := range m.DependencyClasses() {
		satisfied := false
		for _, candidate := range slot {
			if builtNames[candidate] {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return fmt.Errorf("unresolved dependency, need one of %v already built on this node", slot)
		}
	}
	return nil
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
