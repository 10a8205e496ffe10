package middleware

import (
	"net/http"
	"pai-assistant-go/internal/config"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware 检查用户邮箱是否在管理员白名单中。
// 邮箱完全匹配 allowed_emails，或邮箱域名匹配 allowed_domains（"@example.com" 与 "example.com" 等价）。
// 此中间件必须在 AuthMiddleware 之后使用。
func AdminAuthMiddleware(cfg config.AdminConfig) gin.HandlerFunc {
	emails := make(map[string]struct{}, len(cfg.AllowedEmails))
	for _, e := range cfg.AllowedEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails[e] = struct{}{}
		}
	}
	domains := make(map[string]struct{}, len(cfg.AllowedDomains))
	for _, d := range cfg.AllowedDomains {
		if d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@")); d != "" {
			domains[d] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			// AuthMiddleware 未能成功解析，这是一个服务器内部错误
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息", "data": nil})
			return
		}

		if !isAllowed(strings.ToLower(claims.Email), emails, domains) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "权限不足，需要管理员权限", "data": nil})
			return
		}
		c.Next()
	}
}

func isAllowed(email string, emails, domains map[string]struct{}) bool {
	if _, ok := emails[email]; ok {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	_, ok := domains[email[at+1:]]
	return ok
}
