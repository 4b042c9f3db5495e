package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// Overlay contains session data to highlight on the chart.
type Overlay struct {
	CurrentStep domain.StepID
	Closing     bool
}

// GenerateMermaid produces a Mermaid flowchart of a step chain.
// Shapes follow the action:
// - SEND_DIGIT: [Rectangle]
// - FILL_FIELD: [/Parallelogram/]
// - FINISH_WITH_AUTH: [[Subroutine]]
// - CONFIRM: {{Hexagon}}
// - DONE: ((Circle))
// Steps before the overlay's current step are styled as visited.
func GenerateMermaid(chain []domain.StepDefinition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, def := range chain {
		safeID := sanitizeMermaidID(def.ID)

		opener, closer := "[", "]"
		switch def.Action {
		case domain.ActionFillField:
			opener, closer = "[/", "/]"
		case domain.ActionFinishWithAuth:
			opener, closer = "[[", "]]"
		case domain.ActionConfirm:
			opener, closer = "{{", "}}"
		}

		detail := def.Digit
		if def.Field != "" {
			detail = string(def.Field)
		}
		if def.Field == domain.FieldAuthCode {
			detail = "auth code"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> %s\"%s\n", safeID, opener, def.ID, detail, closer)

		if def.Action == domain.ActionFinishWithAuth {
			// The confirmation step is only taken when the request asks for it.
			fmt.Fprintf(&sb, "    %s -- \"confirm\" --> %s\n", safeID, sanitizeMermaidID(def.Next))
			fmt.Fprintf(&sb, "    %s -. \"auto close\" .-> %s\n", safeID, sanitizeMermaidID(domain.StepDone))
			continue
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(def.Next))
	}
	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", sanitizeMermaidID(domain.StepDone), domain.StepDone)

	if overlay == nil || overlay.CurrentStep == domain.StepNone {
		return sb.String()
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	for _, def := range chain {
		if def.ID == overlay.CurrentStep {
			break
		}
		fmt.Fprintf(&sb, "    class %s visited;\n", sanitizeMermaidID(def.ID))
	}
	current := overlay.CurrentStep
	if overlay.Closing {
		current = domain.StepDone
	}
	fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(current))

	return sb.String()
}

func sanitizeMermaidID(id domain.StepID) string {
	s := strings.ReplaceAll(string(id), ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
