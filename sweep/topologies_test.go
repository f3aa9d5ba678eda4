package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardTopologies_Shape(t *testing.T) {
	topologies, err := StandardTopologies()
	require.NoError(t, err)
	require.Len(t, topologies, 4)

	want := []struct {
		name         string
		small, large int
		connections  int
	}{
		{TopologyTwoSite, 1, 1, 1},
		{TopologyThreeSiteSmall, 2, 1, 3},
		{TopologyThreeSiteLarge, 1, 2, 3},
		{TopologyFourSite, 2, 2, 6},
	}
	for i, w := range want {
		topo := topologies[i]
		assert.Equal(t, w.name, topo.Name)
		small, large := topo.ClassCounts()
		assert.Equal(t, w.small, small, topo.Name)
		assert.Equal(t, w.large, large, topo.Name)
		assert.Len(t, topo.Connections, w.connections, topo.Name)
		assert.True(t, topo.Connected(), topo.Name)
	}
}

func TestStandardTopologies_ExtendTwoSiteBase(t *testing.T) {
	topologies, err := StandardTopologies()
	require.NoError(t, err)
	base := topologies[0]
	for _, topo := range topologies[1:] {
		assert.Equal(t, base.Sites, topo.Sites[:len(base.Sites)], topo.Name)
		assert.Equal(t, base.Connections, topo.Connections[:len(base.Connections)], topo.Name)
	}
	// extension leaves the base untouched
	assert.Len(t, base.Sites, 2)
	assert.Len(t, base.Connections, 1)
}

func TestNewTopology_Validation(t *testing.T) {
	tests := []struct {
		name  string
		sites []Site
		conns []Connection
	}{
		{"no sites", nil, nil},
		{"duplicate id", []Site{smallSite(0), largeSite(0)}, nil},
		{"unknown class", []Site{{ID: 0, Class: "medium"}}, nil},
		{"unknown endpoint", []Site{smallSite(0)}, []Connection{{SiteA: 0, SiteB: 5, Bandwidth: 1}}},
		{"self loop", []Site{smallSite(0), smallSite(1)}, []Connection{{SiteA: 1, SiteB: 1, Bandwidth: 1}}},
		{"zero bandwidth", []Site{smallSite(0), smallSite(1)}, []Connection{{SiteA: 0, SiteB: 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTopology("t", tc.sites, tc.conns)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestTopology_Connected_DetectsIsland(t *testing.T) {
	topo, err := NewTopology("island", []Site{smallSite(0), smallSite(1), largeSite(2)},
		[]Connection{{SiteA: 0, SiteB: 1, Bandwidth: 1}})
	require.NoError(t, err)
	assert.False(t, topo.Connected())
}

func TestSelectTopologies(t *testing.T) {
	all, err := StandardTopologies()
	require.NoError(t, err)

	got, err := SelectTopologies(all, []string{TopologyFourSite, TopologyTwoSite})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, TopologyTwoSite, got[0].Name)
	assert.Equal(t, TopologyFourSite, got[1].Name)

	got, err = SelectTopologies(all, nil)
	require.NoError(t, err)
	assert.Len(t, got, 4)

	_, err = SelectTopologies(all, []string{"site_conf_9_site"})
	assert.Error(t, err)
}
