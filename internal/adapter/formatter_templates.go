package adapter

import (
	"embed"
	htmltemplate "html/template"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/*.tmpl
var formatterTemplateFS embed.FS

var (
	textTemplates *template.Template
	htmlTemplates *htmltemplate.Template
	formatterOnce sync.Once
	formatterErr  error
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
)

// markdownURLEscaper percent-encodes the characters that end or split an
// inline link destination.
var markdownURLEscaper = strings.NewReplacer(
	"(", "%28",
	")", "%29",
	" ", "%20",
	"<", "%3C",
	">", "%3E",
)

func loadFormatterTemplates() {
	formatterOnce.Do(func() {
		funcMap := template.FuncMap{
			"md":    markdownEscaper.Replace,
			"mdurl": markdownURLEscaper.Replace,
		}
		textTemplates, formatterErr = template.New("formatter").Funcs(funcMap).
			ParseFS(formatterTemplateFS, "templates/plaintext.tmpl", "templates/markdown.tmpl")
		if formatterErr != nil {
			return
		}
		htmlTemplates, formatterErr = htmltemplate.New("formatter").
			ParseFS(formatterTemplateFS, "templates/html.tmpl")
	})
}

func executeTextTemplate(name string, data any) (string, error) {
	loadFormatterTemplates()
	if formatterErr != nil {
		return "", formatterErr
	}

	var builder strings.Builder
	if err := textTemplates.ExecuteTemplate(&builder, name, data); err != nil {
		return "", err
	}
	return strings.TrimRight(builder.String(), "\n"), nil
}

func executeHTMLTemplate(name string, data any) (string, error) {
	loadFormatterTemplates()
	if formatterErr != nil {
		return "", formatterErr
	}

	var builder strings.Builder
	if err := htmlTemplates.ExecuteTemplate(&builder, name, data); err != nil {
		return "", err
	}
	return strings.TrimRight(builder.String(), "\n"), nil
}
