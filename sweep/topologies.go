package sweep

import "fmt"

// Names of the fixed topologies, in sweep order.
const (
	TopologyTwoSite        = "site_conf_2_site"
	TopologyThreeSiteSmall = "site_conf_3_site_small"
	TopologyThreeSiteLarge = "site_conf_3_site_large"
	TopologyFourSite       = "site_conf_4_site"
)

const (
	baseBandwidth  = 1.2e7 // link between the two base sites
	addedBandwidth = 6e6   // links from every added site
)

func smallSite(id int) Site {
	return Site{ID: id, Class: SiteSmall, RAM: 2048, ComputeRate: 100, CoreCount: 4, IntraBandwidth: 1.2e7}
}

func largeSite(id int) Site {
	return Site{ID: id, Class: SiteLarge, RAM: 10 * 2048, ComputeRate: 100, CoreCount: 10 * 4, IntraBandwidth: 2 * 1.2e7}
}

// StandardTopologies builds the four fixed topologies of the experiments.
// Each one extends the two-site base; added sites only connect back to
// already present sites.
func StandardTopologies() ([]*Topology, error) {
	base, err := NewTopology(TopologyTwoSite,
		[]Site{smallSite(0), largeSite(1)},
		[]Connection{{SiteA: 0, SiteB: 1, Bandwidth: baseBandwidth}})
	if err != nil {
		return nil, err
	}

	threeSmall, err := base.Extend(TopologyThreeSiteSmall,
		[]Site{smallSite(2)},
		[]Connection{{SiteA: 0, SiteB: 2, Bandwidth: addedBandwidth}, {SiteA: 1, SiteB: 2, Bandwidth: addedBandwidth}})
	if err != nil {
		return nil, err
	}

	threeLarge, err := base.Extend(TopologyThreeSiteLarge,
		[]Site{largeSite(2)},
		[]Connection{{SiteA: 0, SiteB: 2, Bandwidth: addedBandwidth}, {SiteA: 1, SiteB: 2, Bandwidth: addedBandwidth}})
	if err != nil {
		return nil, err
	}

	four, err := base.Extend(TopologyFourSite,
		[]Site{largeSite(2), smallSite(3)},
		[]Connection{
			{SiteA: 2, SiteB: 0, Bandwidth: addedBandwidth},
			{SiteA: 2, SiteB: 1, Bandwidth: addedBandwidth},
			{SiteA: 2, SiteB: 3, Bandwidth: addedBandwidth},
			{SiteA: 3, SiteB: 0, Bandwidth: addedBandwidth},
			{SiteA: 3, SiteB: 1, Bandwidth: addedBandwidth},
		})
	if err != nil {
		return nil, err
	}

	return []*Topology{base, threeSmall, threeLarge, four}, nil
}

// SelectTopologies returns the topologies whose names are listed, in the
// order of all. An empty names list selects everything.
func SelectTopologies(all []*Topology, names []string) ([]*Topology, error) {
	if len(names) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []*Topology
	for _, t := range all {
		if want[t.Name] {
			out = append(out, t)
			delete(want, t.Name)
		}
	}
	for n := range want {
		return nil, fmt.Errorf("unknown topology %q", n)
	}
	return out, nil
}
