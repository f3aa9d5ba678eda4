package sweep

// StorageSlack is the factor applied to the total workflow size to obtain the
// storage available across all sites. The extra half leaves room for files
// duplicated between sites during execution.
const StorageSlack = 1.5

// SiteBudget is the storage budget of one site.
type SiteBudget struct {
	SiteID int
	Budget float64
}

// Budgets holds one SiteBudget per site, in topology site order.
type Budgets []SiteBudget

// Of returns the budget of the given site.
func (b Budgets) Of(siteID int) (float64, bool) {
	for _, sb := range b {
		if sb.SiteID == siteID {
			return sb.Budget, true
		}
	}
	return 0, false
}

// Total returns the sum of all budgets.
func (b Budgets) Total() float64 {
	total := 0.0
	for _, sb := range b {
		total += sb.Budget
	}
	return total
}

// Allocate splits StorageSlack × totalWorkflowSize across the topology's
// sites. With s small and l large sites, unit = target / (s + 2l); small
// sites get unit and large sites 2·unit. The result does not depend on which
// files are later assigned, and Allocate uses no randomness.
func Allocate(topo *Topology, totalWorkflowSize int64) (Budgets, error) {
	if topo == nil {
		return nil, configErrorf("nil topology")
	}
	small, large := topo.ClassCounts()
	if small+large == 0 {
		return nil, configErrorf("topology %q has no small or large sites", topo.Name)
	}
	if totalWorkflowSize < 0 {
		return nil, configErrorf("negative workflow size %d", totalWorkflowSize)
	}

	target := StorageSlack * float64(totalWorkflowSize)
	unit := target / float64(small+2*large)

	budgets := make(Budgets, 0, len(topo.Sites))
	for _, s := range topo.Sites {
		switch s.Class {
		case SiteSmall:
			budgets = append(budgets, SiteBudget{SiteID: s.ID, Budget: unit})
		case SiteLarge:
			budgets = append(budgets, SiteBudget{SiteID: s.ID, Budget: 2 * unit})
		default:
			return nil, configErrorf("topology %q: site %d has unknown class %q", topo.Name, s.ID, s.Class)
		}
	}
	return budgets, nil
}
