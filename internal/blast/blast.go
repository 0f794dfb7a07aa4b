// Package blast computes the set of drones that must be re-evaluated
// after one or more structural state changes, closing the initial set
// under a bounded cascade.
package blast

import (
	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
	"github.com/papyruslabs-ai/seshat-swarm/internal/world"
)

// DroneLookup is the minimal view of the world model the blast engine
// needs: core pattern and neighbor graph by id.
type DroneLookup interface {
	GetDrone(id string) (world.DroneState, bool)
}

// SingleRadius computes affected(i) for one changed drone: itself, its
// spatial neighbors, and its role dependents (followers if it leads,
// leader if it follows, relay target if it relays, relay source if one
// points at it). An unknown id degrades to {i}.
func SingleRadius(w DroneLookup, id string) []string {
	ds, ok := w.GetDrone(id)
	if !ok {
		return []string{id}
	}

	seen := map[string]bool{id: true}
	out := []string{id}
	add := func(other string) {
		if other == "" || seen[other] {
			return
		}
		seen[other] = true
		out = append(out, other)
	}

	for _, n := range ds.Neighbor.Neighbors {
		add(n)
	}

	switch ds.Core.Chi {
	case dimension.Leader:
		for _, f := range ds.Neighbor.FollowerIDs {
			add(f)
		}
	case dimension.Follower:
		if ds.Neighbor.LeaderID != nil {
			add(*ds.Neighbor.LeaderID)
		}
	case dimension.Relay:
		if ds.Neighbor.RelayTarget != nil {
			add(*ds.Neighbor.RelayTarget)
		}
	}
	if ds.Neighbor.RelaySource != nil {
		add(*ds.Neighbor.RelaySource)
	}

	return out
}

// WouldChangePattern predicts whether drone j's assigned pattern would
// change given the current cascade context. The constraint engine
// supplies this during a coordinator tick; tests may supply a stub.
type WouldChangePattern func(id string) bool

// Cascade computes the cascading blast radius over an initial changed
// set. With predicate == nil, it returns the union of SingleRadius over
// changed with no further propagation. With a predicate, it repeatedly
// expands the frontier: each newly evaluated drone that would change
// pattern contributes its own blast radius to the affected set, and any
// ids neither evaluated nor already queued join the next frontier. Each
// drone enters `evaluated` at most once, bounding the work at O(N)
// predicate evaluations.
func Cascade(w DroneLookup, changed []string, predicate WouldChangePattern) []string {
	affectedSet := map[string]bool{}
	var affectedOrder []string
	addAffected := func(id string) {
		if !affectedSet[id] {
			affectedSet[id] = true
			affectedOrder = append(affectedOrder, id)
		}
	}

	for _, c := range changed {
		for _, a := range SingleRadius(w, c) {
			addAffected(a)
		}
	}

	if predicate == nil {
		return affectedOrder
	}

	evaluated := map[string]bool{}
	for _, c := range changed {
		evaluated[c] = true
	}

	frontier := []string{}
	frontierSet := map[string]bool{}
	for _, a := range affectedOrder {
		if !evaluated[a] {
			frontier = append(frontier, a)
			frontierSet[a] = true
		}
	}

	for len(frontier) > 0 {
		var next []string
		nextSet := map[string]bool{}
		for _, j := range frontier {
			evaluated[j] = true
			if !predicate(j) {
				continue
			}
			for _, a := range SingleRadius(w, j) {
				addAffected(a)
				if !evaluated[a] && !frontierSet[a] && !nextSet[a] {
					next = append(next, a)
					nextSet[a] = true
				}
			}
		}
		frontier = next
		frontierSet = nextSet
	}

	return affectedOrder
}
