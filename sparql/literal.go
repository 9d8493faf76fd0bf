package sparql

import (
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

// Renders s as a quoted SPARQL string literal. All characters that
// could terminate the literal are escaped, so the result is safe to
// embed in query text regardless of where s came from.
func Literal(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}

// Query text with placeholders for values. String values go through
// the "lit" function and IRIs through "iri"; only integers are ever
// printed bare.
type Template struct {
	tmpl *template.Template
}

// Parses a query template. Panics on syntax errors, as templates
// are compile time constants.
func MustTemplate(name string, text string) *Template {
	return &Template{
		tmpl: template.Must(template.New(name).
			Funcs(template.FuncMap{"lit": Literal, "iri": iri}).
			Option("missingkey=error").
			Parse(text)),
	}
}

// Renders the template with the given data.
func (t *Template) Render(data interface{}) (string, error) {
	var b strings.Builder
	if err := t.tmpl.Execute(&b, data); err != nil {
		return "", errors.Wrapf(err, "rendering %s", t.tmpl.Name())
	}
	return b.String(), nil
}

// Renders an IRI reference. Characters not allowed in IRIREF are
// rejected rather than escaped.
func iri(s string) (string, error) {
	if strings.ContainsAny(s, "<>\"{}|^`\\ \t\r\n") {
		return "", errors.Errorf("invalid IRI %q", s)
	}
	return "<" + s + ">", nil
}
