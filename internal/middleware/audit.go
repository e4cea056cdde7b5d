package middleware

import (
	"bytes"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/pkg/response"
)

// denyAndAudit aborts the request with err and records the denial with the
// principal (or "unauthenticated"), endpoint and method. The audit record is
// a side effect; its failure never changes the response.
func denyAndAudit(c *gin.Context, err *response.AppError) {
	var uid *uint
	actor := "unauthenticated"
	if principal := GetPrincipal(c); principal != nil {
		uid = &principal.ID
		actor = principal.Username
	}

	services.AuditWarning("Authorization", err.Kind.String(),
		actor+" denied: "+err.Message,
		uid, c.ClientIP(), c.Request.UserAgent(),
		map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		})

	response.AbortError(c, err)
}

// auditGranted records a successful project-role authorization. System-role
// grants are deliberately not logged.
func auditGranted(c *gin.Context, membership *models.ProjectMembership) {
	principal := GetPrincipal(c)
	if principal == nil {
		return
	}
	services.AuditInfo("Authorization", "granted",
		principal.Username+" granted as "+string(membership.Role),
		&principal.ID, c.ClientIP(), c.Request.UserAgent(),
		map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"project": membership.ProjectID,
		})
}

// AuditWrites records successful privileged write operations (POST/PUT/
// PATCH/DELETE) after the handler ran, with a masked body snippet.
func AuditWrites() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != "POST" && method != "PUT" && method != "PATCH" && method != "DELETE" {
			c.Next()
			return
		}

		var bodySnippet string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodySnippet = string(bodyBytes)
			if len(bodySnippet) > 2000 {
				bodySnippet = bodySnippet[:2000] + "...[truncated]"
			}
			bodySnippet = maskSensitiveFields(bodySnippet)
		}

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			// Denials are logged where they happen
			return
		}

		principal := GetPrincipal(c)
		if principal == nil {
			return
		}

		services.AuditInfo(moduleFromPath(c.FullPath()), actionFromMethod(method),
			principal.Username+" "+method+" "+c.Request.URL.Path,
			&principal.ID, c.ClientIP(), c.Request.UserAgent(),
			map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   bodySnippet,
			})
	}
}

// moduleFromPath extracts the resource segment from a route pattern,
// e.g. "/api/projects/:id/tasks" → "tasks".
func moduleFromPath(fullPath string) string {
	module := "unknown"
	for _, part := range strings.Split(strings.TrimPrefix(fullPath, "/api/"), "/") {
		if part == "" || strings.HasPrefix(part, ":") {
			continue
		}
		module = part
	}
	return module
}

func actionFromMethod(method string) string {
	switch method {
	case "POST":
		return "Create"
	case "PUT", "PATCH":
		return "Update"
	case "DELETE":
		return "Delete"
	default:
		return method
	}
}

// maskSensitiveFields replaces sensitive values in a JSON body snippet.
func maskSensitiveFields(body string) string {
	sensitiveKeys := []string{"password", "old_password", "new_password", "secret", "token"}
	lower := strings.ToLower(body)
	for _, key := range sensitiveKeys {
		if strings.Contains(lower, key) {
			body = maskJSONValue(body, key)
		}
	}
	return body
}

// maskJSONValue does a best-effort mask of JSON string values for a given key
func maskJSONValue(body, key string) string {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, "\""+key+"\"")
	if idx == -1 {
		return body
	}

	colonIdx := strings.Index(body[idx+len(key)+2:], ":")
	if colonIdx == -1 {
		return body
	}
	valueStart := idx + len(key) + 2 + colonIdx + 1

	for valueStart < len(body) && (body[valueStart] == ' ' || body[valueStart] == '\t') {
		valueStart++
	}
	if valueStart >= len(body) {
		return body
	}

	if body[valueStart] == '"' {
		endQuote := strings.Index(body[valueStart+1:], "\"")
		if endQuote == -1 {
			return body
		}
		return body[:valueStart+1] + "***" + body[valueStart+1+endQuote:]
	}
	return body
}
