package sweep

import "math/rand"

// FileAssignment places one input file on one site.
type FileAssignment struct {
	Name   string
	SiteID int
	Size   int64
}

// Plan is a distribution plan: every input file of a workflow assigned to
// exactly one site, in inventory order.
type Plan struct {
	Assignments []FileAssignment
}

// Clone returns a deep copy of p.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	return &Plan{Assignments: append([]FileAssignment(nil), p.Assignments...)}
}

// SiteUsage returns the summed size of the files assigned to each site.
func (p *Plan) SiteUsage() map[int]int64 {
	usage := make(map[int]int64)
	for _, a := range p.Assignments {
		usage[a.SiteID] += a.Size
	}
	return usage
}

// Distribute assigns every file to a site chosen uniformly at random among
// the sites whose remaining budget strictly exceeds the file size, then
// charges the file to that site. Files are visited in the given order and no
// earlier assignment is ever revisited.
//
// When a file fits nowhere Distribute returns a *NoFeasibleSiteError and no
// plan. An empty file list is a configuration error.
func Distribute(budgets Budgets, files []FileEntry, rng *rand.Rand) (*Plan, error) {
	if len(budgets) == 0 {
		return nil, configErrorf("no site budgets to distribute over")
	}
	if len(files) == 0 {
		return nil, configErrorf("workflow has no input files")
	}

	remaining := append(Budgets(nil), budgets...)
	plan := &Plan{Assignments: make([]FileAssignment, 0, len(files))}
	candidates := make([]int, 0, len(remaining))

	for _, f := range files {
		candidates = candidates[:0]
		for i, sb := range remaining {
			if sb.Budget > float64(f.Size) {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			return nil, &NoFeasibleSiteError{
				File:      f.Name,
				Size:      f.Size,
				Remaining: append([]SiteBudget(nil), remaining...),
			}
		}
		target := candidates[rng.Intn(len(candidates))]
		remaining[target].Budget -= float64(f.Size)
		plan.Assignments = append(plan.Assignments, FileAssignment{
			Name:   f.Name,
			SiteID: remaining[target].SiteID,
			Size:   f.Size,
		})
	}
	return plan, nil
}
