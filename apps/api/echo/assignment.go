package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assignment"
)

type assignmentApi struct {
	svc      assignment.Service
	validate *validator.Validate
}

func registerAssignmentAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps Deps) {
	api := assignmentApi{svc: deps.AssignmentSvc, validate: deps.Validate}

	ag := g.Group("/assignments", authed...)
	ag.GET("", api.query)
	ag.GET("/mine", api.queryMine, teacherMiddleware(false))
	ag.GET("/:id", api.retrieve)

	admin := adminMiddleware()
	ag.POST("", api.create, admin)
	ag.PUT("/:id", api.update, admin)
	ag.DELETE("/:id", api.destroy, admin)
}

func (api *assignmentApi) query(ctx echo.Context) error {
	filter := assignment.QueryFilter{
		TeacherID:   ctx.QueryParam("teacher_id"),
		SubjectID:   ctx.QueryParam("subject_id"),
		ClassFormID: ctx.QueryParam("class_form_id"),
	}
	asgs, count, err := api.svc.Query(ctx.Request().Context(), filter, bindPagination(ctx))
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, newListResponse(asgs, count))
}

func (api *assignmentApi) queryMine(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	asgs, err := api.svc.Mine(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying teacher assignments")
	}
	return ctx.JSON(http.StatusOK, newListResponse(asgs, len(asgs)))
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	asg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding assignment")
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	asg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding assignment")
	}

	var data assignment.UpdateAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}

	asg, err = api.svc.Update(ctx.Request().Context(), asg, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.JSON(http.StatusOK, deletedResponse("Assignment"))
}
