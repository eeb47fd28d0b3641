package generator

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a control flow graph generator assistant.
Generate DOT graph code that follows these rules:
1. Use proper 'digraph G {...}' structure
2. Include clear node labels
3. Use -> for directed edges
4. Add appropriate edge labels for conditions
5. Maintain consistent formatting`

// buildPrompt frames the user's description as a new graph or a refinement
// of the current one.
func buildPrompt(input string, repair bool) string {
	verb := "Create a control flow graph for"
	if repair {
		verb = "Improve the existing graph for"
	}
	return fmt.Sprintf(`%s: %s

Include in your response:
1. A clear explanation of the process flow
2. The complete DOT graph code
3. Ensure all nodes are connected
4. Use descriptive edge labels`, verb, input)
}

// FormatResponse turns the model's explanation into the bullet layout the
// chat widget renders: code fences and the "Complete DOT Graph Code" heading
// are dropped, existing bullets are kept, dash lines become indented
// sub-bullets and everything else gets a bullet.
func FormatResponse(explanation string) string {
	var parts []string
	for _, raw := range strings.Split(explanation, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			continue
		case strings.Contains(line, "Complete DOT Graph Code"), strings.Contains(line, "```"):
			continue
		case strings.HasPrefix(line, "•"):
			parts = append(parts, line)
		case strings.HasPrefix(line, "-"):
			parts = append(parts, "  "+line)
		default:
			parts = append(parts, "• "+line)
		}
	}
	return strings.Join(parts, "\n")
}
