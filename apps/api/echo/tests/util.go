package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/douaaea/schoolhub/apps/api/echo"
	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/artifact"
	"github.com/douaaea/schoolhub/core/assignment"
	"github.com/douaaea/schoolhub/core/grade"
	"github.com/douaaea/schoolhub/core/identity"
	"github.com/douaaea/schoolhub/core/workreturn"
	"github.com/douaaea/schoolhub/services/logger"
	"github.com/douaaea/schoolhub/services/metrics"
	"github.com/douaaea/schoolhub/storage/artifact/diskstore"
	"github.com/douaaea/schoolhub/storage/database/inmem"
)

type env struct {
	app         Server
	uploadDir   string
	store       artifact.Store
	identities  identity.Repository
	assignments assignment.Repository
	grades      grade.Repository
	workReturns workreturn.Repository
	metrics     *metrics.Recorder
	logs        *bytes.Buffer
}

func setup(t *testing.T) *env {
	db := inmemdb.Open()
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := diskstore.New(dir)
	if err != nil {
		t.Fatalf("diskstore.New() failed: %v", err)
	}

	e := &env{
		uploadDir:   dir,
		store:       store,
		identities:  inmemdb.NewIdentityRepository(db),
		assignments: inmemdb.NewAssignmentRepository(db),
		grades:      inmemdb.NewGradeRepository(db),
		workReturns: inmemdb.NewWorkReturnRepository(db),
		metrics:     metrics.NewRecorder(),
		logs:        new(bytes.Buffer),
	}

	conf := &core.Config{Env: "TEST", TestMode: true}
	logger := logsvc.NewRollbarLogger(log.New(e.logs, "", 0), conf)
	logger.Enable(false)
	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)

	lifecycle := assignment.NewLifecycle(e.assignments)
	ledger := grade.NewLedger(e.grades)

	e.app = NewServer(&Options{
		TestMode:       true,
		DisableReqLogs: true,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		Metrics:        e.metrics,
		Resolver:       identity.NewResolver(identity.PlainVerifier{}, identity.Providers(e.identities)...),
		Ingestor:       workreturn.NewIngestor(e.workReturns, e.identities, e.assignments, lifecycle, store, e.metrics.ObserveStep),
		Grader:         workreturn.NewGrader(e.workReturns, e.identities, e.assignments, ledger),
		WorkReturnSvc:  workreturn.NewService(e.workReturns, store),
		AssignmentSvc:  assignment.NewService(e.assignments, lifecycle),
		GradeSvc:       grade.NewService(e.grades, ledger, e.assignments, e.identities),
	})
	return e
}

type httpErr struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

type upload struct {
	assignmentID int64
	studentID    int64
	filename     string
	content      []byte
}

func newUploadRequest(t *testing.T, u upload) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if u.assignmentID != 0 {
		_ = w.WriteField("assignmentId", strconv.FormatInt(u.assignmentID, 10))
	}
	if u.studentID != 0 {
		_ = w.WriteField("studentId", strconv.FormatInt(u.studentID, 10))
	}
	if u.filename != "" {
		part, err := w.CreateFormFile("file", u.filename)
		if err != nil {
			t.Fatalf("CreateFormFile() failed: %v", err)
		}
		_, _ = part.Write(u.content)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart.Close() failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/workreturns", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, httptest.NewRecorder()
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("json.Unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
