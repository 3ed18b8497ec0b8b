package http_auth_middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// userIDKey is where the middleware parks the authenticated user id in the
// gin context.
const userIDKey = "auth_user_id"

type TokenParser interface {
	ParseToken(raw string) (int64, error)
}

type Middleware struct {
	parser TokenParser
	logger *slog.Logger
}

func New(parser TokenParser) *Middleware {
	return &Middleware{
		parser: parser,
		logger: slog.Default(),
	}
}

// The middleware's own 401 body uses {"msg": ...} rather than the shared
// envelope; clients distinguish token failures from application errors by it.
type unauthorizedResponse struct {
	Msg string `json:"msg"`
}

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (m *Middleware) AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, unauthorizedResponse{
				Msg: "missing authorization header",
			})
			return
		}

		userID, err := m.parser.ParseToken(token)
		if err != nil {
			m.logger.Info("rejected token", slog.String("error", err.Error()))
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, unauthorizedResponse{
				Msg: "invalid or expired token",
			})
			return
		}

		ctx.Set(userIDKey, userID)
		ctx.Next()
	}
}

// Optional sets the user when a valid token is present and lets the request
// through either way.
func (m *Middleware) Optional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token := bearerToken(ctx); token != "" {
			if userID, err := m.parser.ParseToken(token); err == nil {
				ctx.Set(userIDKey, userID)
			}
		}
		ctx.Next()
	}
}

// UserID returns the authenticated user id, or 0 for anonymous requests.
func UserID(ctx *gin.Context) int64 {
	v, ok := ctx.Get(userIDKey)
	if !ok {
		return 0
	}
	id, ok := v.(int64)
	if !ok {
		return 0
	}
	return id
}
