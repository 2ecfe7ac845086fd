package resolver

import (
	"regexp"
	"strings"
)

// tokenPattern matches a well-formed {token} span: a single opening brace,
// the next closing brace, and no brace in between. Unbalanced braces simply
// never match and stay literal text.
var tokenPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// ExtractTokens returns the distinct token names found in template, in
// order of first appearance. A template with no tokens yields nil.
func ExtractTokens(template string) []string {
	matches := tokenPattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var tokens []string
	for _, m := range matches {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		tokens = append(tokens, name)
	}
	return tokens
}

// Vocabulary lists every token name the providers can resolve, grouped by
// merge order. Callers that need to distinguish "fully resolved" from
// "partially resolved" diff against this list.
var Vocabulary = []string{
	// client
	"nombre", "email", "telefono", "instagram_usuario", "puntos", "total_compras", "ultima_compra",
	// business
	"nombre_negocio", "descripcion_negocio", "ubicacion", "enlace_menu",
	// promotion
	"nombre_promocion", "descripcion_promocion", "fecha_inicio", "fecha_fin", "usos_maximos", "usos_actuales",
	// order
	"numero_pedido", "total_pedido", "estado_pedido", "fecha_entrega",
	// temporal
	"fecha_actual", "hora_actual", "dia_semana",
}

// substitute replaces every occurrence of {key} with its value. Keys whose
// value is empty are skipped, which leaves the literal {key} visible in the
// output instead of silently blanking it. Tokens with no table entry are
// untouched.
func substitute(template string, vars map[string]string) string {
	out := template
	for key, val := range vars {
		if val == "" {
			continue
		}
		out = strings.ReplaceAll(out, "{"+key+"}", val)
	}
	return out
}
