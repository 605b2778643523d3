package echoapi

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/grade"
	"github.com/douaaea/schoolhub/core/identity"
	"github.com/douaaea/schoolhub/core/workreturn"
	"github.com/douaaea/schoolhub/services/metrics"
)

type workReturnApi struct {
	ingestor *workreturn.Ingestor
	grader   *workreturn.Grader
	svc      *workreturn.Service
	metrics  *metrics.Recorder
}

func registerWorkReturnAPI(app *echo.Echo, api workReturnApi) {
	g := app.Group("/workreturns")
	g.POST("", api.submit)
	g.GET("", api.query)
	g.GET("/:id", api.retrieve)
	g.GET("/:id/download", api.download)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
}

type gradedWorkReturn struct {
	ID      int64  `json:"id"`
	FileURL string `json:"fileUrl"`
	Grade   *int   `json:"grade"`
}

func (api *workReturnApi) record(outcome string) {
	if api.metrics != nil {
		api.metrics.Submission(outcome)
	}
}

func formFile(ctx echo.Context) (*workreturn.File, func(), error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		if errors.Cause(err) == http.ErrMissingFile {
			return nil, func() {}, nil
		}
		return nil, func() {}, errors.Wrap(err, "reading multipart file")
	}
	var f multipart.File
	if f, err = fh.Open(); err != nil {
		return nil, func() {}, errors.Wrap(err, "opening multipart file")
	}
	return &workreturn.File{Name: fh.Filename, Size: fh.Size, Content: f}, func() { _ = f.Close() }, nil
}

func (api *workReturnApi) submit(ctx echo.Context) error {
	// unparsable ids are reported as missing
	assignmentID, _ := core.ParseID(ctx.FormValue("assignmentId"))
	studentID, _ := core.ParseID(ctx.FormValue("studentId"))

	file, closeFile, err := formFile(ctx)
	if err != nil {
		return err
	}
	defer closeFile()

	if studentID != 0 {
		setContextIdentity(ctx, identity.Descriptor{Role: identity.Student, ID: studentID})
	}
	rcpt, err := api.ingestor.Submit(ctx.Request().Context(), workreturn.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		File:         file,
	})
	if err != nil {
		switch {
		case core.IsNotFound(err):
			api.record("rejected")
			return core.NewValidationError(err)
		case isValidation(err):
			api.record("rejected")
			return err
		}
		api.record("failed")
		return errors.Wrap(err, "submitting work return")
	}

	api.record("accepted")
	return ctx.JSON(http.StatusCreated, rcpt)
}

func isValidation(err error) bool {
	_, ok := errors.Cause(err).(*core.ValidationError)
	return ok
}

func (api *workReturnApi) query(ctx echo.Context) error {
	groupID, err := queryID(ctx, "groupId")
	if err != nil {
		return err
	}
	studentID, err := queryID(ctx, "studentId")
	if err != nil {
		return err
	}

	wrs, err := api.svc.Query(ctx.Request().Context(), workreturn.QueryFilter{StudentID: studentID, GroupID: groupID})
	if err != nil {
		return errors.Wrap(err, "querying work returns")
	}
	return ctx.JSON(http.StatusOK, wrs)
}

func (api *workReturnApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	wr, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting work return")
	}
	return ctx.JSON(http.StatusOK, wr)
}

func (api *workReturnApi) download(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	a, err := api.svc.OpenArtifact(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "opening work return file")
	}
	defer func() { _ = a.Content.Close() }()

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, a.Key))
	return ctx.Stream(http.StatusOK, a.ContentType, a.Content)
}

func (api *workReturnApi) update(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data UpdateWorkReturn
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateWorkReturn")
	}

	var wr workreturn.WorkReturn
	if !data.Grade.Set || data.Grade.Invalid {
		if wr, err = api.svc.Get(ctx.Request().Context(), id); err != nil {
			return errors.Wrap(err, "getting work return")
		}
		if data.Grade.Invalid {
			return errInvalidGradeFormat
		}
	} else {
		var outcome grade.Outcome
		if wr, outcome, err = api.grader.Grade(ctx.Request().Context(), id, data.Grade.Value); err != nil {
			return errors.Wrap(err, "grading work return")
		}
		if api.metrics != nil {
			api.metrics.GradeUpsert(metrics.PathWorkReturn, string(outcome))
		}
	}
	return ctx.JSON(http.StatusOK, gradedWorkReturn{ID: wr.ID, FileURL: wr.FilePath, Grade: wr.Grade})
}

func (api *workReturnApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting work return")
	}
	return ctx.NoContent(http.StatusNoContent)
}
