package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/classform"
	"github.com/trezcool/darasa/core/gradebook"
	"github.com/trezcool/darasa/core/student"
)

type studentApi struct {
	svc       student.Service
	forms     classform.Service
	gradebook gradebook.Service
	validate  *validator.Validate
}

func registerStudentAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps Deps) {
	api := studentApi{
		svc:       deps.StudentSvc,
		forms:     deps.ClassFormSvc,
		gradebook: deps.GradebookSvc,
		validate:  deps.Validate,
	}

	sg := g.Group("/students", authed...)
	sg.GET("", api.query)
	sg.GET("/by-class", api.queryByClass)
	sg.GET("/:id", api.retrieve)

	admin := adminMiddleware()
	sg.POST("", api.create, admin)
	sg.PUT("/:id", api.update, admin)
	sg.DELETE("/:id", api.destroy, admin)
}

func (api *studentApi) query(ctx echo.Context) error {
	q := ctx.QueryParams()
	filter := student.QueryFilter{Search: q.Get("search"), FormIDs: queryStrings(q, "form_id")}
	students, count, err := api.svc.Query(ctx.Request().Context(), filter, bindPagination(ctx))
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, newListResponse(students, count))
}

func (api *studentApi) queryByClass(ctx echo.Context) error {
	groups, err := api.gradebook.StudentsByClass(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "grouping students by class")
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.forms); err != nil {
		return err
	}

	owner, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	st, err := api.svc.Create(ctx.Request().Context(), data, owner.ID)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *studentApi) update(ctx echo.Context) error {
	st, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student")
	}

	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate, api.forms); err != nil {
		return err
	}

	st, err = api.svc.Update(ctx.Request().Context(), st, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.JSON(http.StatusOK, deletedResponse("Student"))
}
