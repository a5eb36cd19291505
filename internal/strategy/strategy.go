// Package strategy implements the trading signal generators. Each generator
// is a pure transform from a candle series to a per-bar directional signal;
// generators are stateless and dispatched by string identifier through a
// shared registry.
package strategy

import (
	"sort"

	"tradesim/internal/model"
)

// Direction values produced by every generator.
const (
	DirLong  = 1
	DirShort = -1
	DirFlat  = 0
)

// Change magnitudes that mark a tradable transition. A +2 change means the
// signal crossed upward through zero (entry); -2 means it crossed downward
// (exit).
const (
	ChangeEntry = 2
	ChangeExit  = -2
)

// SignalSeries carries the per-bar direction and its bar-over-bar change,
// parallel to the candle series it was generated from.
type SignalSeries struct {
	Direction []int
	Change    []int
}

// Params is the optional per-strategy parameter mapping. Unrecognised keys
// are ignored; missing keys fall back to the strategy's defaults.
type Params map[string]float64

// Int reads an integer parameter, falling back to def when absent or
// non-positive.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok && int(v) > 0 {
		return int(v)
	}
	return def
}

// Float reads a float parameter, falling back to def when absent or
// non-positive.
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok && v > 0 {
		return v
	}
	return def
}

// Generator is the contract every strategy implements.
type Generator interface {
	// ID returns the strategy's registry identifier.
	ID() string

	// Generate produces the signal series for the given candles. The result
	// always has exactly one direction and one change entry per candle.
	Generate(candles []model.Candle, params Params) SignalSeries
}

var registry = map[string]Generator{}

func register(g Generator) {
	registry[g.ID()] = g
}

func init() {
	register(SMACross{})
	register(RSIMomentum{})
	register(Bollinger{})
	register(MACD{})
}

// Lookup returns the generator registered under id. The second return value
// reports whether the id is known.
func Lookup(id string) (Generator, bool) {
	g, ok := registry[id]
	return g, ok
}

// IDs returns the sorted identifiers of all registered strategies.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// changesFrom derives the change column from a direction column. The first
// bar never produces a transition.
func changesFrom(direction []int) []int {
	change := make([]int, len(direction))
	for i := 1; i < len(direction); i++ {
		change[i] = direction[i] - direction[i-1]
	}
	return change
}
