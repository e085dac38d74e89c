// Package domain defines workflows, their action variants and automation logs.
//
// A workflow fires on a named domain event. Its trigger conditions are an exact-match
// conjunction over the event payload and its actions run in order, each isolated from
// the failures of the others.
package domain

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Workflow is an administrator-defined trigger, condition and action rule.
type Workflow struct {
	ID                uuid.UUID
	Name              string
	TriggerEvent      string
	TriggerConditions map[string]any
	Actions           []Action
	Priority          int
	Active            bool
	ExecutionCount    int64
	LastExecutedAt    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Matches reports whether every trigger condition equals the payload value under the
// same key. An empty condition set always matches.
func (w *Workflow) Matches(payload map[string]any) bool {
	for key, expected := range w.TriggerConditions {
		actual, ok := payload[key]
		if !ok || !valuesEqual(expected, actual) {
			return false
		}
	}
	return true
}

// valuesEqual compares JSON-shaped values. Numbers compare by value regardless of
// their Go type.
func valuesEqual(expected, actual any) bool {
	if a, ok := toDecimal(expected); ok {
		b, ok := toDecimal(actual)
		return ok && a.Equal(b)
	}
	return reflect.DeepEqual(expected, actual)
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	}
	return decimal.Zero, false
}

// Toggle sets the active flag, or flips it when active is nil.
func (w *Workflow) Toggle(active *bool, now time.Time) {
	if active != nil {
		w.Active = *active
	} else {
		w.Active = !w.Active
	}
	w.UpdatedAt = now
}
