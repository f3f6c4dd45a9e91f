package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Clinician roles eligible to hold appointment slots. Shared with the roster
// so HTTP gating and slot assignment agree on who counts as a clinician.
var ClinicianRoles = []string{"admin", "therapist"}

// RequireRole returns middleware that checks if the user has at least one of
// the specified roles. Admin passes any check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRoles := RolesFromContext(c.Request().Context())
			for _, required := range roles {
				for _, has := range userRoles {
					if has == required || has == "admin" {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// RequireOrg returns middleware that rejects requests without an organization
// scope. Handlers downstream may assume OrgIDFromContext is non-empty.
func RequireOrg() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if OrgIDFromContext(c.Request().Context()) == "" {
				return echo.NewHTTPError(http.StatusForbidden, "missing organization scope")
			}
			return next(c)
		}
	}
}
