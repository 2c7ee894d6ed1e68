package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"freshBite/pkg/logger"
	jsonres "freshBite/pkg/response"
	"freshBite/pkg/utils"

	"github.com/labstack/echo/v4"
)

// OptionalAuth resolves an identity when a valid bearer token is present
// and lets the request through anonymously otherwise. Personalized signals
// need identity; everything else works without it.
func OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, ok := bearerClaims(c); ok {
				if customerID, err := strconv.ParseUint(claims.UserID, 10, 64); err == nil {
					c.Set("customer_id", uint(customerID))
					c.Set("role", claims.Role)
				}
			}
			return next(c)
		}
	}
}

// AuthMiddleware requires a valid bearer token. Used on admin routes.
func AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := bearerClaims(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Missing or invalid authorization header", nil,
				))
			}

			expAt, err := claims.GetExpirationTime()
			if err != nil || expAt == nil || time.Now().After(expAt.Time) {
				return c.JSON(http.StatusForbidden, jsonres.Error(
					"FORBIDDEN", "Status Forbidden", nil,
				))
			}

			customerID, err := strconv.ParseUint(claims.UserID, 10, 64)
			if err != nil {
				logger.Error("Invalid user ID in token", "error", err)
				return c.JSON(http.StatusForbidden, jsonres.Error(
					"FORBIDDEN", "Invalid user ID in token", nil,
				))
			}

			c.Set("customer_id", uint(customerID))
			c.Set("role", claims.Role)

			return next(c)
		}
	}
}

func bearerClaims(c echo.Context) (*utils.Claims, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, false
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return nil, false
	}

	claims, err := utils.ParseJWT(tokenParts[1])
	if err != nil {
		return nil, false
	}

	return claims, true
}
