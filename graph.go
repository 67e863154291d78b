package borg

import (
	"fmt"
	"strings"
)

// GraphNode is one unit in a graph snapshot. Wave is the index of the
// execution wave the unit was grouped into.
type GraphNode struct {
	Key  Key `json:"key"`
	Wave int `json:"wave"`
}

// GraphEdge means "From depends on To".
type GraphEdge struct {
	From Key `json:"from"`
	To   Key `json:"to"`
}

// Graph is a dependency graph snapshot including the wave grouping.
// Nodes are listed in execution order (dependencies first).
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
	Waves [][]Key     `json:"waves"`
}

// Graph computes a graph snapshot for the registered units. It shares the
// grouping pass with Run and Waves, so a cyclic graph is reported here too.
func (o *Orchestrator) Graph() (Graph, error) {
	plan, err := o.plan()
	if err != nil {
		return Graph{}, err
	}

	waveIndex := make(map[Key]int, len(o.units))
	for i, wave := range plan.waves {
		for _, key := range wave {
			waveIndex[key] = i
		}
	}

	nodes := make([]GraphNode, 0, len(plan.order))
	edges := make([]GraphEdge, 0, len(plan.order))
	for _, key := range plan.order {
		nodes = append(nodes, GraphNode{Key: key, Wave: waveIndex[key]})
		for _, dep := range o.units[key].deps {
			edges = append(edges, GraphEdge{From: key, To: dep})
		}
	}
	return Graph{Nodes: nodes, Edges: edges, Waves: plan.waves}, nil
}

// DOT exports Graphviz DOT text.
func (g Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph borg {\n")
	b.WriteString("  rankdir=LR;\n")

	aliases := make(map[Key]string, len(g.Nodes))
	for i, n := range g.Nodes {
		alias := fmt.Sprintf("n%d", i)
		aliases[n.Key] = alias
		label := escapeDOT(string(n.Key)) + fmt.Sprintf("\\n(wave %d)", n.Wave)
		b.WriteString(fmt.Sprintf("  %s [label=\"%s\"];\n", alias, label))
	}
	for _, e := range g.Edges {
		from, okFrom := aliases[e.From]
		to, okTo := aliases[e.To]
		if !okFrom || !okTo {
			continue
		}
		b.WriteString(fmt.Sprintf("  %s -> %s;\n", from, to))
	}
	b.WriteString("}\n")
	return b.String()
}

// Mermaid exports Mermaid graph text.
func (g Graph) Mermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	aliases := make(map[Key]string, len(g.Nodes))
	for i, n := range g.Nodes {
		alias := fmt.Sprintf("n%d", i)
		aliases[n.Key] = alias
		label := escapeMermaid(string(n.Key)) + fmt.Sprintf("<br/>(wave %d)", n.Wave)
		b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", alias, label))
	}
	for _, e := range g.Edges {
		from, okFrom := aliases[e.From]
		to, okTo := aliases[e.To]
		if !okFrom || !okTo {
			continue
		}
		b.WriteString(fmt.Sprintf("    %s --> %s\n", from, to))
	}
	return b.String()
}

func escapeDOT(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

func escapeMermaid(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}
