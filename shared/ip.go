package shared

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var ipv4WithPortRegex = regexp.MustCompile(`^(\d{1,3}(?:\.\d{1,3}){3}):\d+$`)

// GetClientIP resolves the caller address behind load balancers and
// proxies: first X-Forwarded-For entry, then X-Real-IP, then the socket.
func GetClientIP(c *fiber.Ctx) string {
	forwarded := strings.TrimSpace(c.Get("X-Forwarded-For"))
	if forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return NormalizeIP(first)
		}
	}

	realIP := strings.TrimSpace(c.Get("X-Real-IP"))
	if realIP != "" {
		return NormalizeIP(realIP)
	}

	return NormalizeIP(c.Context().RemoteIP().String())
}

// NormalizeIP strips the IPv4-mapped IPv6 prefix and a trailing IPv4 port
// so the same client always maps to one rate-limit record.
func NormalizeIP(ip string) string {
	s := strings.TrimSpace(ip)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "::ffff:") {
		return s[len("::ffff:"):]
	}
	if m := ipv4WithPortRegex.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
