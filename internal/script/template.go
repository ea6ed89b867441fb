package script

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// PromptData is the data available to the narration prompt template.
type PromptData struct {
	Name    string
	Content string
}

// PromptTemplate renders the narration prompt for one place.
type PromptTemplate struct {
	tmpl *template.Template
}

// LoadPromptTemplate parses the template file. The file uses standard Go
// template syntax with {{.Name}} and {{.Content}} available.
func LoadPromptTemplate(path string) (*PromptTemplate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template %s: %w", path, err)
	}
	return ParsePromptTemplate(string(raw))
}

// ParsePromptTemplate parses template text directly; exported for tests and
// embedded defaults.
func ParsePromptTemplate(text string) (*PromptTemplate, error) {
	tmpl, err := template.New("narration").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &PromptTemplate{tmpl: tmpl}, nil
}

// Render produces the final prompt string.
func (t *PromptTemplate) Render(data PromptData) (string, error) {
	var out strings.Builder
	if err := t.tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return out.String(), nil
}
