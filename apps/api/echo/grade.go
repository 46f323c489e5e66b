package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/gradebook"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subject"
)

type gradeApi struct {
	svc       grade.Service
	gradebook gradebook.Service
	students  student.Service
	subjects  subject.Service
	validate  *validator.Validate
}

func registerGradeAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps Deps) {
	api := gradeApi{
		svc:       deps.GradeSvc,
		gradebook: deps.GradebookSvc,
		students:  deps.StudentSvc,
		subjects:  deps.SubjectSvc,
		validate:  deps.Validate,
	}

	gg := g.Group("/grades", authed...)
	gg.GET("", api.query)
	gg.GET("/summary", api.summary)
	gg.GET("/:id", api.retrieve)

	// grade entry sheet of the authed teacher
	teacher := teacherMiddleware(false)
	gg.GET("/entry", api.entrySheet, teacher)
	gg.PUT("/entry/classes/:id", api.submitClass, teacher)
	gg.DELETE("/entry/classes/:id", api.clearClass, teacher)

	staff := teacherMiddleware(true)
	gg.POST("", api.create, staff)
	gg.PUT("/:id", api.update, staff)
	gg.DELETE("/:id", api.destroy, staff)
}

func (api *gradeApi) query(ctx echo.Context) error {
	q := ctx.QueryParams()
	filter := grade.QueryFilter{StudentIDs: queryStrings(q, "student_id"), SubjectIDs: queryStrings(q, "subject_id")}
	grades, count, err := api.svc.Query(ctx.Request().Context(), filter, bindPagination(ctx))
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return ctx.JSON(http.StatusOK, newListResponse(grades, count))
}

func (api *gradeApi) summary(ctx echo.Context) error {
	summary, err := api.gradebook.Summary(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building grades summary")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	g, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding grade")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) entrySheet(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	view, err := api.gradebook.TeacherView(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "building teacher view")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *gradeApi) submitClass(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data ClassGradesRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassGradesRequest")
	}

	grades, err := api.gradebook.SubmitClassGrades(ctx.Request().Context(), usr.ID, ctx.Param("id"), data.Entries)
	if err != nil {
		return errors.Wrap(err, "submitting class grades")
	}
	return ctx.JSON(http.StatusOK, newListResponse(grades, len(grades)))
}

func (api *gradeApi) clearClass(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	n, err := api.gradebook.DeleteClassGrades(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting class grades")
	}
	return ctx.JSON(http.StatusOK, DeleteCountResponse{MessageResponse: deletedResponse("Grades"), Count: n})
}

func (api *gradeApi) create(ctx echo.Context) error {
	var data grade.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.students, api.subjects); err != nil {
		return err
	}

	g, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *gradeApi) update(ctx echo.Context) error {
	g, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding grade")
	}

	var data grade.UpdateGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGrade")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	g, err = api.svc.Update(ctx.Request().Context(), g, data)
	if err != nil {
		return errors.Wrap(err, "updating grade")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.JSON(http.StatusOK, deletedResponse("Grade"))
}

type (
	ClassGradesRequest struct {
		Entries []gradebook.Entry `json:"entries"`
	}

	DeleteCountResponse struct {
		MessageResponse
		Count int `json:"count"`
	}
)
