// internal/service/template.go
package service

import "regexp"

var placeholderRe = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Render substitutes every {{name}} placeholder in template with the matching
// attribute value. Names are matched exactly and case-sensitively. A
// placeholder with no matching attribute renders as the literal [name] marker
// and its name is returned in unresolved (once per distinct name, in order of
// first appearance). Substituted values are not re-scanned, so attribute
// values containing {{...}} come through verbatim.
func Render(template string, attrs map[string]string) (rendered string, unresolved []string) {
	seen := map[string]bool{}
	rendered = placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		name := m[2 : len(m)-2]
		if v, ok := attrs[name]; ok {
			return v
		}
		if !seen[name] {
			seen[name] = true
			unresolved = append(unresolved, name)
		}
		return "[" + name + "]"
	})
	return rendered, unresolved
}
