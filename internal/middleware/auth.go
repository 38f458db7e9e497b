package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/wordlink/internal/handlers"
	"go.uber.org/zap"
)

// AdminAuth returns a Huma middleware that requires "Authorization: Bearer <token>"
// on operations registered with handlers.AdminMetadataKey. An empty token
// rejects every admin request.
func AdminAuth(api huma.API, token string, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !handlers.IsAdminOperation(ctx.Operation()) {
			next(ctx)

			return
		}

		if token == "" || !validBearer(ctx.Header("Authorization"), token) {
			logger.Warn("admin request rejected",
				zap.String("path", ctx.URL().Path),
				zap.String("clientIp", extractClientIP(ctx)),
			)

			ctx.SetHeader("WWW-Authenticate", "Bearer")
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "Unauthorized")

			return
		}

		next(ctx)
	}
}

func validBearer(header, token string) bool {
	scheme, credentials, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(credentials)), []byte(token)) == 1
}
