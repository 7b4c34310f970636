package notify

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

const (
	TemplateAssociation = "association"
	TemplateStreaming   = "streaming"
)

type templateDef struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

type compiled struct {
	subject *template.Template
	body    *template.Template
}

// Catalog holds the email templates, keyed by name.
type Catalog struct {
	templates map[string]compiled
}

func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(templatesYAML)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var defs map[string]templateDef
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	c := &Catalog{templates: make(map[string]compiled, len(defs))}
	for name, d := range defs {
		subj, err := template.New(name + ".subject").Option("missingkey=error").Parse(d.Subject)
		if err != nil {
			return nil, fmt.Errorf("template %s subject: %w", name, err)
		}
		body, err := template.New(name + ".body").Option("missingkey=error").Parse(d.Body)
		if err != nil {
			return nil, fmt.Errorf("template %s body: %w", name, err)
		}
		c.templates[name] = compiled{subject: subj, body: body}
	}
	return c, nil
}

func (c *Catalog) Render(name string, data any) (subject, body string, err error) {
	t, ok := c.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", name)
	}
	var s, b strings.Builder
	if err := t.subject.Execute(&s, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := t.body.Execute(&b, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	return s.String(), b.String(), nil
}
