package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/classform"
)

type classFormApi struct {
	svc      classform.Service
	validate *validator.Validate
}

func registerClassFormAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps Deps) {
	api := classFormApi{svc: deps.ClassFormSvc, validate: deps.Validate}

	cg := g.Group("/class-forms", authed...)
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)

	admin := adminMiddleware()
	cg.POST("", api.create, admin)
	cg.PUT("/:id", api.update, admin)
	cg.DELETE("/:id", api.destroy, admin)
}

func (api *classFormApi) query(ctx echo.Context) error {
	filter := classform.QueryFilter{Search: ctx.QueryParam("search")}
	forms, count, err := api.svc.Query(ctx.Request().Context(), filter, bindPagination(ctx))
	if err != nil {
		return errors.Wrap(err, "querying class forms")
	}
	return ctx.JSON(http.StatusOK, newListResponse(forms, count))
}

func (api *classFormApi) retrieve(ctx echo.Context) error {
	cf, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding class form")
	}
	return ctx.JSON(http.StatusOK, cf)
}

func (api *classFormApi) create(ctx echo.Context) error {
	var data classform.NewClassForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassForm")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	cf, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class form")
	}
	return ctx.JSON(http.StatusCreated, cf)
}

func (api *classFormApi) update(ctx echo.Context) error {
	cf, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding class form")
	}

	var data classform.NewClassForm
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassForm")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate, api.svc, cf); err != nil {
		return err
	}

	cf, err = api.svc.Update(ctx.Request().Context(), cf, data)
	if err != nil {
		return errors.Wrap(err, "updating class form")
	}
	return ctx.JSON(http.StatusOK, cf)
}

func (api *classFormApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class form")
	}
	return ctx.JSON(http.StatusOK, deletedResponse("Class Form"))
}
