// Package semantic computes semantic values for construction matches through
// named action plugins.
package semantic

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/pattern"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("cxg.semantic")

// ErrUnknownAction is returned when a construction names an unregistered action.
var ErrUnknownAction = errors.New("unknown semantic action")

// Action is a semantic calculation plugin.
type Action interface {
	// Calculate derives a value from a match and the construction's
	// semantics configuration.
	Calculate(match *pattern.MatchResult, config map[string]any) (any, error)
	// DeriveFeatures turns a calculated value into node features.
	DeriveFeatures(value any) (map[string]string, error)
}

// Funcs adapts plain functions to Action. A nil Features yields no features.
type Funcs struct {
	Calc     func(match *pattern.MatchResult, config map[string]any) (any, error)
	Features func(value any) (map[string]string, error)
}

func (f Funcs) Calculate(match *pattern.MatchResult, config map[string]any) (any, error) {
	return f.Calc(match, config)
}

func (f Funcs) DeriveFeatures(value any) (map[string]string, error) {
	if f.Features == nil {
		return nil, nil
	}
	return f.Features(value)
}

// Result is the outcome of applying an action.
type Result struct {
	Value    any
	Features map[string]string
}

// Calculator is a registry of actions. It is safe for concurrent use.
type Calculator struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewCalculator returns a calculator with the built-in actions registered.
func NewCalculator() *Calculator {
	c := &Calculator{actions: make(map[string]Action)}
	registerBuiltins(c)
	return c
}

// Register adds or replaces an action.
func (c *Calculator) Register(name string, a Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions[name] = a
}

// Actions returns the registered action names, sorted.
func (c *Calculator) Actions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.actions))
	for name := range c.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calculate runs the action named by sem. Errors and panics raised by the
// action are returned as errors; the match itself is never modified.
func (c *Calculator) Calculate(match *pattern.MatchResult, sem *construction.Semantics) (res Result, err error) {
	if sem == nil || sem.Method == "" {
		return Result{}, nil
	}
	c.mu.RLock()
	action, ok := c.actions[sem.Method]
	c.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownAction, sem.Method)
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("semantic action %s panicked: %v", sem.Method, r)
		}
	}()

	value, err := action.Calculate(match, sem.Config)
	if err != nil {
		return Result{}, fmt.Errorf("semantic action %s: %w", sem.Method, err)
	}
	features, err := action.DeriveFeatures(value)
	if err != nil {
		return Result{Value: value}, fmt.Errorf("semantic action %s features: %w", sem.Method, err)
	}
	return Result{Value: value, Features: features}, nil
}

// Apply is Calculate for callers that must carry on regardless: failures are
// logged and yield an empty result.
func (c *Calculator) Apply(name string, match *pattern.MatchResult, sem *construction.Semantics) Result {
	res, err := c.Calculate(match, sem)
	if err != nil {
		log.Warningf("%s: %s", name, err)
		return Result{}
	}
	return res
}
