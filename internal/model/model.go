// Package model defines the capability contract every node plug-in
// implements, grounded on the interface in the original simulator's
// imodel.py.
package model

import "fmt"

// Tag is the coarse capability label used for typed cross-model lookup.
type Tag int

const (
	TagPower Tag = iota
	TagOrbital
	TagFieldOfView
	TagRadio
	TagDataGenerator
	TagDataStore
	TagISL
	TagMAC
	TagADACS
	TagImaging
	TagImagingRadio
	TagCompute
	TagScheduler
)

func (t Tag) String() string {
	switch t {
	case TagPower:
		return "power"
	case TagOrbital:
		return "orbital"
	case TagFieldOfView:
		return "field-of-view"
	case TagRadio:
		return "radio"
	case TagDataGenerator:
		return "data-generator"
	case TagDataStore:
		return "data-store"
	case TagISL:
		return "isl"
	case TagMAC:
		return "mac"
	case TagADACS:
		return "adacs"
	case TagImaging:
		return "imaging"
	case TagImagingRadio:
		return "imaging-radio"
	case TagCompute:
		return "compute"
	case TagScheduler:
		return "scheduler"
	default:
		return fmt.Sprintf("tag(%d)", int(t))
	}
}

// API is the named-operation handler a Model exposes at the boundary the
// Manager and other models reach it through. Args/results are a flat
// key-value map, preserving the name-addressed external contract while
// every in-process caller that knows the concrete type prefers the typed
// capability interfaces declared by each tag (see the radio, power,
// orbital and mac packages).
type API func(args map[string]any) (map[string]any, error)

// Model is the common interface every node plug-in implements.
type Model interface {
	// Name is the unique string identifier of this model instance's class,
	// matching the "iname" used in configuration.
	Name() string

	// ModelTag is this model's coarse capability label.
	ModelTag() Tag

	// SupportedNodeKinds lists the node kind names this model accepts; an
	// empty slice means "any node kind".
	SupportedNodeKinds() []string

	// DependencyClasses is a nested dependency list: the outer slice is an
	// AND across slots, each inner slice an OR of acceptable iname values
	// satisfying that slot. An empty outer slice means no dependencies.
	DependencyClasses() [][]string

	// CallAPI dispatches to a named operation in this model's API table.
	CallAPI(apiName string, args map[string]any) (map[string]any, error)

	// Execute runs this model's per-step behavior.
	Execute() error
}

// Base implements the boilerplate accessors shared by every concrete model
// so implementations only need to embed it and supply Execute plus their
// API table.
type Base struct {
	NameValue    string
	TagValue     Tag
	NodeKinds    []string
	Dependencies [][]string
	APIs         map[string]API
}

func (b *Base) Name() string                  { return b.NameValue }
func (b *Base) ModelTag() Tag                  { return b.TagValue }
func (b *Base) SupportedNodeKinds() []string  { return b.NodeKinds }
func (b *Base) DependencyClasses() [][]string { return b.Dependencies }

func (b *Base) CallAPI(apiName string, args map[string]any) (map[string]any, error) {
	fn, ok := b.APIs[apiName]
	if !ok {
		return nil, fmt.Errorf("model %s: unknown API %q", b.NameValue, apiName)
	}
	return fn(args)
}
