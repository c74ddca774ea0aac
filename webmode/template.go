package webmode

import "strings"

// DefaultTemplate is used by web modes configured without a template.
const DefaultTemplate = "{value}"

// Expand substitutes every {identifier} in template with its binding.
// Substitution is literal: bound text is never expanded again. {{ and }}
// produce a literal brace.
func Expand(template string, bindings map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		switch c := template[i]; c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", &TemplateError{Template: template, Reason: "unterminated placeholder"}
			}
			ident := template[i+1 : i+1+end]
			if ident == "" {
				return "", &TemplateError{Template: template, Reason: "empty placeholder"}
			}
			value, ok := bindings[ident]
			if !ok {
				return "", &TemplateError{Template: template, Identifier: ident, Reason: "unbound placeholder"}
			}
			b.WriteString(value)
			i += end + 2
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", &TemplateError{Template: template, Reason: "single '}'"}
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String(), nil
}

// Placeholders lists the identifiers referenced by template in order of
// first appearance. Malformed placeholders are ignored.
func Placeholders(template string) []string {
	var (
		idents []string
		seen   = make(map[string]struct{})
	)
	for i := 0; i < len(template); i++ {
		if template[i] != '{' {
			continue
		}
		if i+1 < len(template) && template[i+1] == '{' {
			i++
			continue
		}
		end := strings.IndexByte(template[i+1:], '}')
		if end <= 0 {
			continue
		}
		ident := template[i+1 : i+1+end]
		if _, dup := seen[ident]; !dup {
			seen[ident] = struct{}{}
			idents = append(idents, ident)
		}
		i += end + 1
	}
	return idents
}
