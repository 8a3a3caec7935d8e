package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
)

// parseAllowList turns plain addresses and CIDR ranges into prefixes.
// Entries that parse as neither are skipped.
func parseAllowList(entries []string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if strings.Contains(e, "/") {
			if p, err := netip.ParsePrefix(e); err == nil {
				out = append(out, p.Masked())
			}
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			a = a.Unmap()
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return out
}

// IPWhitelist only lets through clients whose address is listed, either
// exactly or inside a CIDR range. A nil or empty list allows everyone; a
// list with no usable entry allows no one.
func IPWhitelist(entries []string) gin.HandlerFunc {
	prefixes := parseAllowList(entries)
	open := len(entries) == 0
	return func(c *gin.Context) {
		if open {
			c.Next()
			return
		}
		addr, err := netip.ParseAddr(c.ClientIP())
		if err == nil {
			addr = addr.Unmap()
			for _, p := range prefixes {
				if p.Contains(addr) {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	}
}
