package depgraph

const (
	white = iota
	gray
	black
)

// DetectCycles walks the graph depth first in sorted id order. Each back edge
// to a node still on the stack yields the cycle path from the stack.
func DetectCycles(g *Graph) [][]string {
	cycles, _ := walk(g)
	return cycles
}

func walk(g *Graph) ([][]string, []Edge) {
	color := make(map[string]int, len(g.ids))
	var (
		stack  []string
		cycles [][]string
		back   []Edge
	)

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		stack = append(stack, id)
		for _, next := range g.dependents[id] {
			switch color[next] {
			case gray:
				back = append(back, Edge{From: id, To: next})
				cycles = append(cycles, cyclePath(stack, next))
			case white:
				visit(next)
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, id := range g.ids {
		if color[id] == white {
			visit(id)
		}
	}
	return cycles, back
}

func cyclePath(stack []string, start string) []string {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == start {
			out := make([]string, len(stack)-i)
			copy(out, stack[i:])
			return out
		}
	}
	return []string{start}
}
