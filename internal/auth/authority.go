package auth

import (
	"strings"

	"github.com/trendystore/authserver/types"
)

const authorityPrefix = "ROLE_"

// Authority renders a role name as a client-facing authority, "admin" -> "ROLE_ADMIN".
func Authority(roleName string) string {
	return authorityPrefix + strings.ToUpper(roleName)
}

func Authorities(roles []types.Role) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		out = append(out, Authority(role.Name))
	}
	return out
}
