package services

import "strings"

const (
	unvisited = iota
	inProgress
	done
)

// questionGraph is an arena of questions; edges hold indices into nodes.
type questionGraph struct {
	nodes []string
	edges [][]int
}

// ValidateQuestionGraph reports duplicate question or answer IDs, sub-question references to
// unknown questions, and every cycle reachable through sub-question links.
func ValidateQuestionGraph(questions []Question) error {
	var problems problemList
	graph := buildQuestionGraph(questions, &problems)

	color := make([]int, len(graph.nodes))
	stack := make([]int, 0, len(graph.nodes))

	var visit func(int)
	visit = func(node int) {
		color[node] = inProgress
		stack = append(stack, node)
		for _, next := range graph.edges[node] {
			switch color[next] {
			case unvisited:
				visit(next)
			case inProgress:
				problems.addf("cycle: %s", describeCycle(graph, stack, next))
			}
		}
		stack = stack[:len(stack)-1]
		color[node] = done
	}
	for node := range graph.nodes {
		if color[node] == unvisited {
			visit(node)
		}
	}

	if problems.empty() {
		return nil
	}
	return &GraphValidationError{problems: problems.list()}
}

func buildQuestionGraph(questions []Question, problems *problemList) questionGraph {
	graph := questionGraph{
		nodes: make([]string, 0, len(questions)),
		edges: make([][]int, 0, len(questions)),
	}
	index := make(map[string]int, len(questions))
	owners := make([]int, len(questions))
	for pos, question := range questions {
		owners[pos] = -1
		id := strings.TrimSpace(question.ID)
		if id == "" {
			problems.addf("question at position %d has no id", pos)
			continue
		}
		if _, dup := index[id]; dup {
			problems.addf("question %s: duplicate id", id)
			continue
		}
		index[id] = len(graph.nodes)
		owners[pos] = len(graph.nodes)
		graph.nodes = append(graph.nodes, id)
		graph.edges = append(graph.edges, nil)
	}

	answers := make(map[string]string)
	for pos, question := range questions {
		from := owners[pos]
		if from < 0 {
			continue
		}
		for _, answer := range question.Answers {
			if owner, dup := answers[answer.ID]; dup && answer.ID != "" {
				problems.addf("answer %s: duplicate id (questions %s and %s)", answer.ID, owner, question.ID)
			} else {
				answers[answer.ID] = question.ID
			}
			sub := strings.TrimSpace(answer.SubQuestionID)
			if sub == "" {
				continue
			}
			to, ok := index[sub]
			if !ok {
				problems.addf("answer %s: sub-question %s does not exist", answer.ID, sub)
				continue
			}
			graph.edges[from] = append(graph.edges[from], to)
		}
	}
	return graph
}

func describeCycle(graph questionGraph, stack []int, start int) string {
	begin := 0
	for i, node := range stack {
		if node == start {
			begin = i
			break
		}
	}
	parts := make([]string, 0, len(stack)-begin+1)
	for _, node := range stack[begin:] {
		parts = append(parts, graph.nodes[node])
	}
	parts = append(parts, graph.nodes[start])
	return strings.Join(parts, " -> ")
}
