// Package router wires handlers and middleware onto the Echo instance.
// Each Register function owns one surface of the API so main stays a
// plain list of calls.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/screenbook/movie-reservation/internal/handler"
	"github.com/screenbook/movie-reservation/internal/middleware"
)

// RegisterRoutes registers routes that carry no handler state. Currently
// that is only the health check used by load balancers and probes.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session lifecycle endpoints. The open group
// (register, login, refresh, logout) sits behind the rate limiter because
// these are the credential-guessing targets; /auth/me requires a valid
// access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	me := e.Group("/auth", middleware.JWTAuth(jwtSecret), middleware.RequireRole("USER", "ADMIN"))
	me.GET("/me", a.Me)
}
