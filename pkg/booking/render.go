package booking

import (
	"embed"
	"fmt"
	"html"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

const defaultPhone = "(219) 615-9477"

//go:embed templates/*.tpl
var templateFiles embed.FS

var (
	templateOnce sync.Once
	templateSet  *pongo2.TemplateSet
	templateErr  error

	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

func templates() (*pongo2.TemplateSet, error) {
	templateOnce.Do(func() {
		sub, err := fs.Sub(templateFiles, "templates")
		if err != nil {
			templateErr = fmt.Errorf("booking: templates: %w", err)
			return
		}
		templateSet = pongo2.NewSet("booking", pongo2.NewFSLoader(sub))
	})
	return templateSet, templateErr
}

// markupSanitizer admits only what the three views need. The widget script
// itself never goes through here; see ScriptTag.
func markupSanitizer() *bluemonday.Policy {
	markupPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("div", "p", "a", "span")
		policy.AllowDataAttributes()
		policy.AllowAttrs("class").Globally()
		policy.AllowStyles("min-width", "height").OnElements("div")
		policy.AllowAttrs("href", "target", "rel").OnElements("a")
		policy.AllowURLSchemes("https", "tel", "mailto")
		policy.RequireParseableURLs(true)
		markupPolicy = policy
	})
	return markupPolicy
}

// Render returns sanitized markup for the current state. Idle renders like
// Loading.
func (e *Embed) Render() (string, error) {
	state, reason := e.State()
	set, err := templates()
	if err != nil {
		return "", err
	}

	name := "loading.tpl"
	switch state {
	case StateReady:
		name = "ready.tpl"
	case StateFailed:
		name = "failed.tpl"
	}
	tpl, err := set.FromCache(name)
	if err != nil {
		return "", fmt.Errorf("booking: load %s: %w", name, err)
	}

	out, err := tpl.Execute(pongo2.Context{
		"url":        e.url,
		"height":     e.height,
		"min_width":  MinWidth,
		"phone":      e.phone,
		"phone_href": phoneHref(e.phone),
		"reason":     string(reason),
	})
	if err != nil {
		return "", fmt.Errorf("booking: render %s: %w", name, err)
	}
	return strings.TrimSpace(markupSanitizer().Sanitize(out)), nil
}

// ScriptTag returns the widget loader tag, or "" when no booking url is
// configured.
func (e *Embed) ScriptTag() string {
	if e.url == "" {
		return ""
	}
	return fmt.Sprintf(`<script src="%s" async></script>`, html.EscapeString(WidgetScriptURL))
}

// phoneHref keeps the digits and a leading plus of a display number.
func phoneHref(display string) string {
	var b strings.Builder
	for i, r := range display {
		if r >= '0' && r <= '9' || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
