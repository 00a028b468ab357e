package archive

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// CompareTexts generates a line-oriented diff between two settings file
// texts. Line endings are normalized first so a CRLF rewrite of identical
// content does not show up as a change.
func CompareTexts(oldText, newText string) *DiffResult {
	oldText = normalizeLineEndings(oldText)
	newText = normalizeLineEndings(newText)

	if oldText == newText {
		return &DiffResult{
			DiffText:   "",
			HasChanges: false,
		}
	}

	dmp := diffmatchpatch.New()

	// Map each line to a rune so the diff runs line by line instead of
	// character by character
	chars1, chars2, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	return &DiffResult{
		DiffText:   renderLineDiff(diffs),
		HasChanges: true,
	}
}

// normalizeLineEndings converts all line endings to \n for consistent comparison.
func normalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}

// renderLineDiff converts diffmatchpatch diffs to a simplified line-based diff.
// Output format:
//   - Lines starting with '-' are removed from the old text
//   - Lines starting with '+' are added in the new text
//   - Indented lines are unchanged context, limited to 3 lines per side
func renderLineDiff(diffs []diffmatchpatch.Diff) string {
	var result strings.Builder

	for _, diff := range diffs {
		lines := strings.Split(diff.Text, "\n")

		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			for _, line := range lines {
				if line != "" { // Skip empty lines at diff boundaries
					result.WriteString("- ")
					result.WriteString(line)
					result.WriteString("\n")
				}
			}

		case diffmatchpatch.DiffInsert:
			for _, line := range lines {
				if line != "" {
					result.WriteString("+ ")
					result.WriteString(line)
					result.WriteString("\n")
				}
			}

		case diffmatchpatch.DiffEqual:
			// Long unchanged stretches collapse to leading and trailing
			// context around an ellipsis
			contextLines := 3
			if len(lines) > contextLines*2 {
				for i := 0; i < contextLines && i < len(lines); i++ {
					if lines[i] != "" {
						result.WriteString("  ")
						result.WriteString(lines[i])
						result.WriteString("\n")
					}
				}

				result.WriteString("  ...\n")

				for i := len(lines) - contextLines; i < len(lines); i++ {
					if i >= 0 && lines[i] != "" {
						result.WriteString("  ")
						result.WriteString(lines[i])
						result.WriteString("\n")
					}
				}
			} else {
				for _, line := range lines {
					if line != "" {
						result.WriteString("  ")
						result.WriteString(line)
						result.WriteString("\n")
					}
				}
			}
		}
	}

	return result.String()
}
