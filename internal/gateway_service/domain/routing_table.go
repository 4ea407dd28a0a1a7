package domain

import (
	"context"
	"sort"
)

// RoutingTable maps container numbers to the phone numbers they serve.
// It is consulted only for contacts with no persisted assignment yet.
type RoutingTable map[int][]string

// ContainersFor returns every container whose phone list contains the
// given phone, ascending. Multiple matches are intentional fan-out, not an
// error.
func (t RoutingTable) ContainersFor(phone string) []int {
	var containers []int
	for container, phones := range t {
		for _, p := range phones {
			if p == phone {
				containers = append(containers, container)
				break
			}
		}
	}
	sort.Ints(containers)
	return containers
}

// RoutingTableProvider loads the static routing table fresh on each call.
// Implementations must degrade to an empty table when the underlying
// resource is missing or malformed, never fail.
type RoutingTableProvider interface {
	Load(ctx context.Context) RoutingTable
}
