package extract

import (
	"regexp"
	"strings"
)

var (
	trailingCommaObj = regexp.MustCompile(`,\s*}`)
	trailingCommaArr = regexp.MustCompile(`,\s*]`)
)

// sanitizeJSON repairs the usual LLM output defects before unmarshaling:
// markdown code fences, trailing commas, and prose before the JSON object.
func sanitizeJSON(text string) string {
	t := strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")

	t = trailingCommaObj.ReplaceAllString(t, "}")
	t = trailingCommaArr.ReplaceAllString(t, "]")
	t = strings.ReplaceAll(t, "```json", "")
	t = strings.ReplaceAll(t, "```", "")

	if i := strings.Index(t, "{"); i > 0 {
		t = t[i:]
	}

	return strings.TrimSpace(t)
}
