package orders

import (
	"math"
	"strings"
)

// Completion evaluation is pure: it reads quantities and tracking tallies
// and never mutates the order.

// requirement is what an assignment must satisfy to count as complete.
// Most teams track a single tally; caps assignments whose process includes
// assembly must satisfy both the metal and the assembly tally.
type requirement interface {
	satisfied(target int) bool
}

type singleRequirement struct {
	completed int
}

func (r singleRequirement) satisfied(target int) bool {
	return r.completed >= target
}

type dualRequirement struct {
	metal    int
	assembly int
}

func (r dualRequirement) satisfied(target int) bool {
	return r.metal >= target && r.assembly >= target
}

func completedQty(t *Tracking) int {
	if t == nil {
		return 0
	}
	return t.TotalCompletedQty
}

func requirementFor(a Assignment, team string) requirement {
	if team == TeamCaps {
		if strings.Contains(a.Process, "Assembly") {
			return dualRequirement{
				metal:    completedQty(a.MetalTracking),
				assembly: completedQty(a.AssemblyTracking),
			}
		}
		return singleRequirement{completed: completedQty(a.MetalTracking)}
	}
	return singleRequirement{completed: completedQty(a.TeamTracking)}
}

// AssignmentComplete reports whether one assignment has reached its target
// quantity. A zero-quantity assignment is trivially complete and never
// blocks an item.
func AssignmentComplete(a Assignment, team string) bool {
	target := a.Quantity
	if target < 0 {
		target = 0
	}
	return requirementFor(a, team).satisfied(target)
}

// ItemComplete reports whether every assignment on the item, across all
// teams, is complete. An item with no assignments at all is not complete:
// absence of work is not completion. A team key with an empty list does
// not block the item on its own.
func ItemComplete(item Item) bool {
	total := 0
	for team, assignments := range item.TeamAssignments {
		total += len(assignments)
		for _, a := range assignments {
			if !AssignmentComplete(a, team) {
				return false
			}
		}
	}
	return total > 0
}

// CompletionPercent returns the order's completion as an integer 0..100,
// the rounded share of complete items.
func CompletionPercent(o *Order) int {
	if o == nil || len(o.Items) == 0 {
		return 0
	}
	done := 0
	for _, item := range o.Items {
		if ItemComplete(item) {
			done++
		}
	}
	pct := int(math.Round(100 * float64(done) / float64(len(o.Items))))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// DeriveStatus is the only source of truth for an order's status.
func DeriveStatus(o *Order) string {
	if CompletionPercent(o) == 100 {
		return StatusCompleted
	}
	return StatusPending
}
