package routers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// ValidateJWT checks the bearer token of the request was signed with secret
// and, when issuer is set, issued by issuer. The token subject becomes the
// current user.
func ValidateJWT(logger *zap.SugaredLogger, secret []byte, issuer string) func(*gin.Context) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}
	return func(c *gin.Context) {
		authz := c.Request.Header.Get("Authorization")
		if authz == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authz, " ")
		if len(parts) != 2 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		if strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		var claims jwt.RegisteredClaims
		if _, err := parser.ParseWithClaims(parts[1], &claims, keyFunc); err != nil {
			logger.Debugw("invalid token", "error", err)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if issuer != "" && !claims.VerifyIssuer(issuer, true) {
			logger.Debugw("unexpected token issuer", "issuer", claims.Issuer)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if claims.Subject == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(gin.AuthUserKey, claims.Subject)
		c.Next()
	}
}
