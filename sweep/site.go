package sweep

import "fmt"

// SiteClass is the storage class of a site. Large sites receive twice the
// storage share of small sites.
type SiteClass string

const (
	SiteSmall SiteClass = "small"
	SiteLarge SiteClass = "large"
)

// Site is one compute/storage location of a federated topology.
// Storage budgets are not part of Site; see Allocate.
type Site struct {
	ID             int       `yaml:"id"`
	Class          SiteClass `yaml:"type"`
	RAM            int       `yaml:"ram"`
	ComputeRate    int       `yaml:"mips"`
	CoreCount      int       `yaml:"pes"`
	IntraBandwidth float64   `yaml:"intra_bw"`
}

// Connection is an undirected link between two sites of the same topology.
type Connection struct {
	SiteA     int     `yaml:"site_a"`
	SiteB     int     `yaml:"site_b"`
	Bandwidth float64 `yaml:"bandwidth"`
}

// Topology is a named set of sites and the connections between them.
// Construct with NewTopology or Extend; read-only afterwards.
type Topology struct {
	Name        string       `yaml:"name"`
	Sites       []Site       `yaml:"sites"`
	Connections []Connection `yaml:"connections"`
}

// NewTopology validates and builds a topology. Site ids must be unique,
// classes known, and every connection must join two distinct known sites.
func NewTopology(name string, sites []Site, connections []Connection) (*Topology, error) {
	t := &Topology{
		Name:        name,
		Sites:       append([]Site(nil), sites...),
		Connections: append([]Connection(nil), connections...),
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Extend returns a new topology containing all of t's sites and connections
// plus the given ones. t is not modified.
func (t *Topology) Extend(name string, sites []Site, connections []Connection) (*Topology, error) {
	allSites := append(append([]Site(nil), t.Sites...), sites...)
	allConns := append(append([]Connection(nil), t.Connections...), connections...)
	return NewTopology(name, allSites, allConns)
}

// Site returns the site with the given id.
func (t *Topology) Site(id int) (Site, bool) {
	for _, s := range t.Sites {
		if s.ID == id {
			return s, true
		}
	}
	return Site{}, false
}

// ClassCounts returns the number of small and large sites.
func (t *Topology) ClassCounts() (small, large int) {
	for _, s := range t.Sites {
		switch s.Class {
		case SiteSmall:
			small++
		case SiteLarge:
			large++
		}
	}
	return small, large
}

func (t *Topology) validate() error {
	if t.Name == "" {
		return configErrorf("topology name must not be empty")
	}
	if len(t.Sites) == 0 {
		return configErrorf("topology %q has no sites", t.Name)
	}
	seen := make(map[int]bool, len(t.Sites))
	for _, s := range t.Sites {
		if seen[s.ID] {
			return configErrorf("topology %q: duplicate site id %d", t.Name, s.ID)
		}
		seen[s.ID] = true
		if s.Class != SiteSmall && s.Class != SiteLarge {
			return configErrorf("topology %q: site %d has unknown class %q", t.Name, s.ID, s.Class)
		}
	}
	for _, c := range t.Connections {
		if c.SiteA == c.SiteB {
			return configErrorf("topology %q: connection loops on site %d", t.Name, c.SiteA)
		}
		if !seen[c.SiteA] || !seen[c.SiteB] {
			return configErrorf("topology %q: connection %d-%d references an unknown site", t.Name, c.SiteA, c.SiteB)
		}
		if c.Bandwidth <= 0 {
			return configErrorf("topology %q: connection %d-%d has non-positive bandwidth %v", t.Name, c.SiteA, c.SiteB, c.Bandwidth)
		}
	}
	return nil
}

// Connected reports whether every pair of sites is reachable over the
// topology's connections.
func (t *Topology) Connected() bool {
	if len(t.Sites) == 0 {
		return false
	}
	adj := make(map[int][]int, len(t.Sites))
	for _, c := range t.Connections {
		adj[c.SiteA] = append(adj[c.SiteA], c.SiteB)
		adj[c.SiteB] = append(adj[c.SiteB], c.SiteA)
	}
	visited := map[int]bool{t.Sites[0].ID: true}
	stack := []int{t.Sites[0].ID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adj[id] {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return len(visited) == len(t.Sites)
}

// String summarizes the topology as name(sites, connections).
func (t *Topology) String() string {
	return fmt.Sprintf("%s(%d sites, %d connections)", t.Name, len(t.Sites), len(t.Connections))
}
