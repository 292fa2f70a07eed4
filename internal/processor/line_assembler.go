/**
 * Line Assembler - recovers reading order from OCR regions
 *
 * Lines are ordered top to bottom by the y of their top-left corner, then
 * joined into one whitespace-normalized problem string.
 */

package processor

import (
	"sort"
	"strings"

	"github.com/adverant/nexus/mathsolver/internal/errors"
)

// AssembleLines orders lines and joins their text. The input slice is not reordered.
func AssembleLines(lines []OCRLine) (string, error) {
	if len(lines) == 0 {
		return "", errors.NewEmptyTextError(0)
	}

	ordered := make([]OCRLine, len(lines))
	copy(ordered, lines)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TopLeft().Y < ordered[j].TopLeft().Y
	})

	var sb strings.Builder
	for _, line := range ordered {
		sb.WriteString(line.Text)
		sb.WriteByte(' ')
	}

	// Fields splits on any Unicode whitespace run, so Join collapses and trims in one go
	text := strings.Join(strings.Fields(sb.String()), " ")
	if text == "" {
		return "", errors.NewEmptyTextError(len(lines))
	}
	return text, nil
}
