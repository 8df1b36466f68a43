package jwtmiddleware

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/medflow/internal/tokens"
)

const contextKey = "ext_claims"

// Extension authenticates extension API calls by their bearer token.
func Extension(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  contextKey,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return tokens.ExtensionFromToken(auth, secret)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing bearer token")
		},
	})
}

func ClaimsFrom(c echo.Context) *tokens.ExtensionClaims {
	claims, _ := c.Get(contextKey).(*tokens.ExtensionClaims)
	return claims
}
