package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/douaaea/schoolhub/core/grade"
	"github.com/douaaea/schoolhub/core/identity"
	"github.com/douaaea/schoolhub/services/metrics"
)

type gradeApi struct {
	svc      *grade.Service
	validate *validator.Validate
	metrics  *metrics.Recorder
}

func registerGradeAPI(app *echo.Echo, svc *grade.Service, validate *validator.Validate, rec *metrics.Recorder) {
	api := gradeApi{svc: svc, validate: validate, metrics: rec}

	g := app.Group("/grades")
	g.PUT("", api.upsert)
	g.GET("", api.query)
	g.GET("/:id", api.retrieve)
}

func (api *gradeApi) upsert(ctx echo.Context) error {
	var data grade.UpsertGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertGrade")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	setContextIdentity(ctx, identity.Descriptor{Role: identity.Student, ID: data.StudentID})
	g, outcome, err := api.svc.Upsert(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "upserting grade")
	}
	if api.metrics != nil {
		api.metrics.GradeUpsert(metrics.PathLedger, string(outcome))
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) query(ctx echo.Context) error {
	studentID, err := queryID(ctx, "studentId")
	if err != nil {
		return err
	}
	assignmentID, err := queryID(ctx, "assignmentId")
	if err != nil {
		return err
	}

	grades, err := api.svc.Query(ctx.Request().Context(), grade.QueryFilter{StudentID: studentID, AssignmentID: assignmentID})
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	g, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting grade")
	}
	return ctx.JSON(http.StatusOK, g)
}
