package failover

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// selectTarget picks a failover target for source among candidates using
// strategy. Same-region candidates are preferred; if none match source's
// region, any healthy candidate is eligible.
func selectTarget(source ServiceEndpoint, candidates []ServiceEndpoint, strategy TargetSelectionStrategy) (ServiceEndpoint, error) {
	pool := make([]ServiceEndpoint, 0, len(candidates))
	for _, e := range candidates {
		if e.ID == source.ID {
			continue
		}
		if e.Status != EndpointHealthy {
			continue
		}
		pool = append(pool, e)
	}
	if len(pool) == 0 {
		return ServiceEndpoint{}, fmt.Errorf("no healthy target candidates for endpoint %s", source.ID)
	}

	sameRegion := make([]ServiceEndpoint, 0, len(pool))
	for _, e := range pool {
		if e.Region == source.Region {
			sameRegion = append(sameRegion, e)
		}
	}
	if len(sameRegion) > 0 {
		pool = sameRegion
	}

	switch strategy {
	case SelectHighestPriority, "":
		sort.SliceStable(pool, func(i, j int) bool { return pool[i].Priority < pool[j].Priority })
		return pool[0], nil
	case SelectLowestLoad:
		sort.SliceStable(pool, func(i, j int) bool { return pool[i].CurrentLoad < pool[j].CurrentLoad })
		return pool[0], nil
	case SelectRandom:
		return pool[rand.IntN(len(pool))], nil
	default:
		return ServiceEndpoint{}, fmt.Errorf("unknown target selection strategy %q", strategy)
	}
}
