package automation

import "regexp"

var varPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// substitute replaces every $name token with the context's variable value.
// Unknown names substitute the empty string.
func (r *Runner) substitute(s string) string {
	if s == "" {
		return s
	}
	return varPattern.ReplaceAllStringFunc(s, func(tok string) string {
		name := tok[1:]
		v, ok := r.ctx.Var(name)
		if !ok {
			r.log.Debug("unknown variable in substitution", "name", name)
			return ""
		}
		return v
	})
}
