package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/UniversalTze/FormBase/internal/models"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
	"github.com/UniversalTze/FormBase/pkg/postgrest"
	"github.com/UniversalTze/FormBase/pkg/response"
)

// ContextClaimsKey is the gin context key storing the caller's upstream claims.
const ContextClaimsKey = "upstreamClaims"

// CredentialsConfig controls how bearer tokens are accepted.
type CredentialsConfig struct {
	// Required rejects requests without a bearer token.
	Required bool
	// Secret is the HMAC key the store signs tokens with. When set, tokens with a
	// bad signature or an expired exp claim are rejected. It must be set whenever
	// the gateway itself scopes rows by owner.
	Secret   []byte
}

// Credentials forwards the caller's bearer token to the remote store and takes
// the row owner from its username claim. Without a token the configured
// credentials apply, unless cfg.Required is set.
func Credentials(cfg CredentialsConfig) gin.HandlerFunc {
	parse := unverifiedParser()
	if len(cfg.Secret) > 0 {
		parse = verifiedParser(cfg.Secret)
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if cfg.Required {
				response.Error(c, appErrors.ErrUnauthorized)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}
		token := strings.TrimSpace(parts[1])

		claims := &models.UpstreamClaims{}
		if err := parse(token, claims); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid bearer token"))
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		ctx := postgrest.WithCredentials(c.Request.Context(), postgrest.Credentials{Token: token, Username: claims.Owner()})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

type claimsParser func(token string, claims *models.UpstreamClaims) error

// unverifiedParser only decodes the token; the remote store checks the signature.
func unverifiedParser() claimsParser {
	parser := jwt.NewParser()
	return func(token string, claims *models.UpstreamClaims) error {
		_, _, err := parser.ParseUnverified(token, claims)
		return err
	}
}

func verifiedParser(secret []byte) claimsParser {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	}))
	keyFunc := func(*jwt.Token) (interface{}, error) { return secret, nil }
	return func(token string, claims *models.UpstreamClaims) error {
		parsed, err := parser.ParseWithClaims(token, claims, keyFunc)
		if err != nil {
			return err
		}
		if !parsed.Valid {
			return jwt.ErrTokenSignatureInvalid
		}
		return nil
	}
}

// ClaimsFromContext returns the claims attached by Credentials, if any.
func ClaimsFromContext(c *gin.Context) (*models.UpstreamClaims, bool) {
	v, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*models.UpstreamClaims)
	return claims, ok
}
