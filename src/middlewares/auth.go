package middlewares

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/santupramanik23/my-guide-backend/src/types"
)

// JWTKey signs and verifies access tokens. It is read once at start up.
var JWTKey = []byte(os.Getenv("JWT_SECRET"))

// AuthMiddleware verifies the bearer token and stores the caller on the context.
// Tokens are issued elsewhere; the subject is the numeric user id.
func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer ") {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	reqToken := strings.TrimSpace(strings.TrimPrefix(bearerToken, "Bearer "))
	if reqToken == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return JWTKey, nil
	})
	if err != nil || !tkn.Valid {
		if err != nil {
			log.Printf("token error: %s\n", err.Error())
		}
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uid == 0 {
		log.Printf("error parsing claims: invalid subject %q\n", claims.Subject)
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	role := claims.Role
	if role == "" {
		role = types.ROLE_TRAVELLER
	}
	ctx.Set("id", uint(uid))
	ctx.Set("role", role)
	ctx.Set("name", claims.Name)
	ctx.Set("email", claims.Email)
	ctx.Set("phone", claims.Phone)
}

// RequireRole lets through only callers holding one of roles.
func RequireRole(roles ...types.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		actor := ActorFromContext(ctx)
		for _, r := range roles {
			if actor.Role == r {
				return
			}
		}
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

// ActorFromContext reads the caller stored by AuthMiddleware.
func ActorFromContext(ctx *gin.Context) types.Actor {
	role, _ := ctx.Get("role")
	r, _ := role.(types.Role)
	return types.Actor{
		ID:    ctx.GetUint("id"),
		Role:  r,
		Name:  ctx.GetString("name"),
		Email: ctx.GetString("email"),
		Phone: ctx.GetString("phone"),
	}
}
