package place

import "strings"

// ParseSections splits a narration script into its titled sections. Each
// section starts at a '#' marker; the first line of the fragment (trimmed)
// is the title and the remainder (trimmed) is the content. Prose before the
// first '#' is not a section and is discarded: compliant scripts open with a
// header. Whitespace-only fragments are discarded too. Sections are numbered
// 1..N in document order.
//
// A fragment with a title line but no body yields a section with empty
// content; the audio composer rejects empty content later with a clear
// error, which keeps the parser total over arbitrary input.
func ParseSections(script string) []AudioScriptSection {
	fragments := strings.Split(script, "#")
	if !strings.HasPrefix(strings.TrimSpace(script), "#") && len(fragments) > 0 {
		// Leading prose without a header marker.
		fragments = fragments[1:]
	}

	var sections []AudioScriptSection
	for _, fragment := range fragments {
		if strings.TrimSpace(fragment) == "" {
			continue
		}
		title, content, found := strings.Cut(fragment, "\n")
		if !found {
			content = ""
		}
		sections = append(sections, AudioScriptSection{
			Number:  len(sections) + 1,
			Title:   strings.TrimSpace(title),
			Content: strings.TrimSpace(content),
		})
	}
	return sections
}
