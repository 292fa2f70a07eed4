/**
 * Answer Parser - turns a free-form model reply into steps and an answer
 *
 * The reply contract is "numbered steps, then a line starting with 答案：".
 * Parsing never fails; replies that ignore the contract degrade to one step
 * per non-empty line and a sentinel answer.
 */

package processor

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// AnswerMarker separates the steps from the final answer
	AnswerMarker = "答案："

	// AnswerNotFound is reported when the reply has no AnswerMarker
	AnswerNotFound = "未找到答案"
)

// numberedBoundary matches a newline followed by a list number such as "\n3." or "\n３."
var numberedBoundary = regexp.MustCompile(`\n\p{Nd}+\.`)

// ParsedSolution is the structured form of a model reply
type ParsedSolution struct {
	Steps       []string
	FinalAnswer string
}

// ParseAnswer splits content on the first AnswerMarker.
// Later markers stay inside the answer text. Sub-numbering like "1.1" is not
// preserved; steps are always renumbered 1..n.
func ParseAnswer(content string) ParsedSolution {
	idx := strings.Index(content, AnswerMarker)
	if idx < 0 {
		return ParsedSolution{
			Steps:       splitLines(content),
			FinalAnswer: AnswerNotFound,
		}
	}

	stepsBlock := strings.TrimSpace(content[:idx])
	answer := strings.TrimSpace(content[idx+len(AnswerMarker):])

	return ParsedSolution{
		Steps:       splitNumberedSteps(stepsBlock),
		FinalAnswer: answer,
	}
}

// splitNumberedSteps treats the start of the block as a boundary too, so the
// first item's number is dropped along with the rest before renumbering.
func splitNumberedSteps(block string) []string {
	steps := []string{}
	for _, fragment := range numberedBoundary.Split("\n"+block, -1) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		steps = append(steps, fmt.Sprintf("%d. %s", len(steps)+1, fragment))
	}
	return steps
}

func splitLines(content string) []string {
	steps := []string{}
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			steps = append(steps, line)
		}
	}
	return steps
}
