package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// ctxUserMiddleware loads the user of the token into the context.
// It must run after the JWT middleware.
func ctxUserMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if core.IsNotFound(err) {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding user by ID")
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

// adminMiddleware lets admins through; when roles are given the admin must hold one of them.
func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return roleMiddleware(func(usr user.User) bool {
		return usr.IsAdmin() && hasAnyRole(usr, roles)
	})
}

// teacherMiddleware lets teachers through, and admins too when orAdmin is set.
func teacherMiddleware(orAdmin bool) echo.MiddlewareFunc {
	return roleMiddleware(func(usr user.User) bool {
		return usr.IsTeacher() || (orAdmin && usr.IsAdmin())
	})
}

func roleMiddleware(allowed func(user.User) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			if allowed(usr) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func hasAnyRole(usr user.User, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if usr.HasRole(role) {
			return true
		}
	}
	return false
}
