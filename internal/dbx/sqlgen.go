package dbx

import (
	"fmt"
	"strings"
)

// Placeholders returns "$from, $from+1, ..." for n parameters.
func Placeholders(from, n int) string {
	p := make([]string, n)
	for i := range p {
		p[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(p, ", ")
}

// SetClause returns "col1 = $from, col2 = $from+1, ..." for an UPDATE.
func SetClause(cols []string, from int) string {
	p := make([]string, len(cols))
	for i, c := range cols {
		p[i] = fmt.Sprintf("%s = $%d", c, from+i)
	}
	return strings.Join(p, ", ")
}
