package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-lending/internal/handler"
	"github.com/iliyamo/library-lending/internal/middleware"
)

// RegisterPublic registers routes that do not require authentication on
// the provided Echo instance: the service banner, the health check and
// the catalog browse endpoints. Guests can search and inspect books;
// borrowing requires a token.
func RegisterPublic(e *echo.Echo, b *handler.BookHandler) {
	// The health endpoint can be used by load balancers or monitoring
	// systems to verify that the service is up and running.
	e.GET("/healthz", handler.Health)
	e.GET("/", handler.Root)

	// Catalog browsing. The search endpoint must be registered before
	// the :id route would otherwise swallow "search" as a book id;
	// Echo resolves static segments first, but keeping them adjacent
	// documents the collision.
	e.GET("/api/books/search", b.Search)
	e.GET("/api/books/:id", b.Get)
}

// RegisterUser registers the authenticated user-facing routes. Every
// route in the group runs the BearerAuth middleware, which verifies the
// token on each request and stores the user id in the context.
func RegisterUser(e *echo.Echo, v middleware.TokenVerifier, l *handler.LoanHandler, w *handler.WishlistHandler, u *handler.UserHandler) {
	g := e.Group("/api")
	g.Use(middleware.BearerAuth(v))

	// Loan workflow: list active loans, borrow, inspect, return.
	g.GET("/loans", l.List)
	g.POST("/loans", l.Borrow)
	g.GET("/loans/:id", l.Get)
	g.PUT("/loans/:id/return", l.Return)

	// Wishlist: list, membership check, add, remove.
	g.GET("/wishlist", w.List)
	g.GET("/wishlist/check/:bookId", w.Check)
	g.POST("/wishlist", w.Add)
	g.DELETE("/wishlist/:bookId", w.Remove)

	// Account endpoints.
	g.GET("/users/me", u.Me)
	g.GET("/users/profile", u.Profile)
}

// RegisterAdmin registers the staff-only routes. The group stacks
// BearerAuth and RequireAdmin, so the admin flag is checked against the
// database on every request and a demotion takes effect immediately.
func RegisterAdmin(e *echo.Echo, v middleware.TokenVerifier, users middleware.UserLookup, a *handler.AdminHandler) {
	g := e.Group("/api/admin")
	g.Use(middleware.BearerAuth(v))
	g.Use(middleware.RequireAdmin(users))

	// Oversight of all active loans, with forced return.
	g.GET("/loans", a.ListLoans)
	g.PUT("/loans/:id/return", a.ForceReturn)

	// Role management.
	g.GET("/users/:id/make-admin", a.MakeAdmin)
	g.GET("/users/:id/remove-admin", a.RemoveAdmin)
}
