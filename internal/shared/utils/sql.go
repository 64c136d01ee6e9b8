package utils

import (
	"fmt"
	"strings"
)

// JoinWithAnd joins a slice of strings with AND operator
func JoinWithAnd(clauses []string) string {
	return strings.Join(clauses, " AND ")
}

// Placeholders returns "($1, $2, $3), ($4, $5, $6)" for rows x cols values
// starting at $start
func Placeholders(rows, cols, start int) string {
	groups := make([]string, 0, rows)
	n := start
	for i := 0; i < rows; i++ {
		ph := make([]string, cols)
		for j := 0; j < cols; j++ {
			ph[j] = fmt.Sprintf("$%d", n)
			n++
		}
		groups = append(groups, "("+strings.Join(ph, ", ")+")")
	}
	return strings.Join(groups, ", ")
}
