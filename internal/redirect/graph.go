package redirect

import (
	"cmp"
	"slices"

	"github.com/nao1215/dupscan/internal/model"
)

// MaxHops bounds how far a chain is followed when one edge's target is the
// source of another.
const MaxHops = 10

// Relation is the direction of a redirect between two URLs.
type Relation int

const (
	// Unrelated means neither URL redirects to the other.
	Unrelated Relation = iota
	// AToB means the first URL redirects to the second.
	AToB
	// BToA means the second URL redirects to the first.
	BToA
)

// String returns the relation name.
func (r Relation) String() string {
	switch r {
	case Unrelated:
		return "unrelated"
	case AToB:
		return "a_to_b"
	case BToA:
		return "b_to_a"
	default:
		return "unknown"
	}
}

// Relationship is the result of Classify.
type Relationship struct {
	Relation  Relation
	Permanent bool
	// Source and Target are the URLs as passed to Classify, oriented along
	// the redirect. Both are empty when Relation is Unrelated.
	Source string
	Target string
}

// Related reports whether any redirect joins the pair.
func (r Relationship) Related() bool {
	return r.Relation != Unrelated
}

// Hop is where a source URL finally lands.
type Hop struct {
	Target    string
	Permanent bool
}

// step is one URL on a chain and whether every hop up to it is permanent.
type step struct {
	key       string
	permanent bool
}

// chain is the resolved path of one source URL.
type chain struct {
	hop  Hop
	path []step
}

// Graph maps source URLs to their resolved redirect chains.
// A Graph is immutable after NewGraph and safe for concurrent reads.
type Graph struct {
	chains map[string]chain
	edges  int
}

// NewGraph builds a graph from edges. Edges sharing a source form one
// chain ordered by Position: the chain ends at the last edge's target and
// is permanent only if every edge is a 301 or 308. When a terminal target
// is itself a source, the chains are joined, up to MaxHops, stopping
// before a cycle closes.
func NewGraph(edges []model.RedirectEdge) *Graph {
	bySource := make(map[string][]model.RedirectEdge)
	for _, e := range edges {
		key := model.URLKey(e.Source)
		if key == "" || model.URLKey(e.Target) == "" {
			continue
		}
		bySource[key] = append(bySource[key], e)
	}

	direct := make(map[string]chain, len(bySource))
	for source, hops := range bySource {
		slices.SortStableFunc(hops, func(a, b model.RedirectEdge) int {
			return cmp.Compare(a.Position, b.Position)
		})
		c := chain{path: make([]step, 0, len(hops))}
		permanent := true
		for _, e := range hops {
			permanent = permanent && e.IsPermanent()
			c.path = append(c.path, step{key: model.URLKey(e.Target), permanent: permanent})
		}
		c.hop = Hop{Target: hops[len(hops)-1].Target, Permanent: permanent}
		direct[source] = c
	}

	g := &Graph{chains: make(map[string]chain, len(direct)), edges: len(edges)}
	for source := range direct {
		g.chains[source] = follow(direct, source)
	}
	return g
}

// follow joins the chain of source with the chains of its targets.
func follow(direct map[string]chain, source string) chain {
	c := direct[source]
	resolved := chain{hop: c.hop, path: slices.Clone(c.path)}

	visited := map[string]struct{}{source: {}}
	for _, s := range c.path {
		visited[s.key] = struct{}{}
	}

	for range MaxHops - 1 {
		next, ok := direct[model.URLKey(resolved.hop.Target)]
		if !ok {
			break
		}
		closes := false
		for _, s := range next.path {
			if _, seen := visited[s.key]; seen {
				closes = true
				break
			}
		}
		if closes {
			break
		}
		for _, s := range next.path {
			visited[s.key] = struct{}{}
			resolved.path = append(resolved.path, step{
				key:       s.key,
				permanent: resolved.hop.Permanent && s.permanent,
			})
		}
		resolved.hop = Hop{
			Target:    next.hop.Target,
			Permanent: resolved.hop.Permanent && next.hop.Permanent,
		}
	}
	return resolved
}

// Len returns the number of sources with a known redirect.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.chains)
}

// Edges returns the number of edges the graph was built from.
func (g *Graph) Edges() int {
	if g == nil {
		return 0
	}
	return g.edges
}

// Resolve returns the terminal hop for url.
func (g *Graph) Resolve(url string) (Hop, bool) {
	if g == nil {
		return Hop{}, false
	}
	c, ok := g.chains[model.URLKey(url)]
	return c.hop, ok
}

// reaches reports whether the chain starting at from passes through to,
// and whether every hop up to it is permanent.
func (g *Graph) reaches(from, to string) (found, permanent bool) {
	if g == nil {
		return false, false
	}
	c, ok := g.chains[model.URLKey(from)]
	if !ok {
		return false, false
	}
	target := model.URLKey(to)
	for _, s := range c.path {
		if s.key == target {
			return true, s.permanent
		}
	}
	return false, false
}

// Classify reports whether a redirects to b, b redirects to a, or neither.
// A redirect counts when b is anywhere on a's chain. URLs are compared
// case-insensitively.
func (g *Graph) Classify(a, b string) Relationship {
	if found, permanent := g.reaches(a, b); found {
		return Relationship{Relation: AToB, Permanent: permanent, Source: a, Target: b}
	}
	if found, permanent := g.reaches(b, a); found {
		return Relationship{Relation: BToA, Permanent: permanent, Source: b, Target: a}
	}
	return Relationship{Relation: Unrelated}
}
