package tests

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douaaea/schoolhub/core/assignment"
	"github.com/douaaea/schoolhub/core/grade"
	"github.com/douaaea/schoolhub/core/workreturn"
	"github.com/douaaea/schoolhub/tests"
)

var pdfBytes = []byte("%PDF-1.4 essay body")

type receipt struct {
	ID      int64  `json:"id"`
	FileURL string `json:"fileUrl"`
}

func (e *env) submit(t *testing.T, u upload) receipt {
	req, rec := newUploadRequest(t, u)
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var r receipt
	decode(t, rec, &r)
	return r
}

func Test_workReturnApi_scenario(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	student := testutil.CreateStudent(t, e.identities, "s@school.ma")
	asg := testutil.CreateAssignment(t, e.assignments, "Essay")

	// submit
	r := e.submit(t, upload{assignmentID: asg.ID, studentID: student.ID, filename: "essay.pdf", content: pdfBytes})
	assert.True(t, strings.HasPrefix(r.FileURL, "/uploads/"))
	assert.True(t, strings.HasSuffix(r.FileURL, "_essay.pdf"))

	onDisk, err := os.ReadFile(filepath.Join(e.uploadDir, strings.TrimPrefix(r.FileURL, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, onDisk)

	got, err := e.assignments.GetAssignment(ctx, asg.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.Submitted, got.Status)

	// grade
	req, rec := newRequest(http.MethodPut, "/workreturns/"+itoa(r.ID), []byte(`{"grade": 92}`))
	e.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"id":` + itoa(r.ID) + `,"fileUrl":"` + r.FileURL + `","grade":92}`)}, rec)

	// read back
	req, rec = newRequest(http.MethodGet, "/workreturns?studentId="+itoa(student.ID))
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []workreturn.WorkReturn
	decode(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, 92, *listed[0].Grade)

	grades, err := e.grades.QueryGrades(ctx, grade.QueryFilter{StudentID: student.ID, AssignmentID: asg.ID})
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, 92.0, *grades[0].Score)

	// download
	req, rec = newRequest(http.MethodGet, "/workreturns/"+itoa(r.ID)+"/download")
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="`+strings.TrimPrefix(r.FileURL, "/uploads/")+`"`, rec.Header().Get("Content-Disposition"))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, body)
}

func Test_workReturnApi_submit(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	student := testutil.CreateStudent(t, e.identities, "s@school.ma")
	asg := testutil.CreateAssignment(t, e.assignments, "Essay")

	msg := func(m string) []byte { return marshallObj(t, httpErr{Message: m}) }
	tests := []struct {
		name     string
		upload   upload
		wantCode int
		wantData []byte
	}{
		{name: "missing ids", upload: upload{filename: "a.pdf", content: pdfBytes}, wantCode: http.StatusBadRequest, wantData: msg("Assignment ID and Student ID are required")},
		{name: "missing file", upload: upload{assignmentID: asg.ID, studentID: student.ID}, wantCode: http.StatusBadRequest, wantData: msg("File is empty or missing")},
		{name: "empty file", upload: upload{assignmentID: asg.ID, studentID: student.ID, filename: "a.pdf"}, wantCode: http.StatusBadRequest, wantData: msg("File is empty or missing")},
		{name: "exe", upload: upload{assignmentID: asg.ID, studentID: student.ID, filename: "a.exe", content: pdfBytes}, wantCode: http.StatusBadRequest, wantData: msg("Only PDF, DOC, DOCX files are allowed")},
		{name: "unknown student", upload: upload{assignmentID: asg.ID, studentID: 999, filename: "a.pdf", content: pdfBytes}, wantCode: http.StatusBadRequest, wantData: msg("Student not found")},
		{name: "unknown assignment", upload: upload{assignmentID: 999, studentID: student.ID, filename: "a.doc", content: pdfBytes}, wantCode: http.StatusBadRequest, wantData: msg("Assignment not found")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newUploadRequest(t, tt.upload)
			e.app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: tt.wantCode, wantData: tt.wantData}, rec)
		})
	}

	entries, err := os.ReadDir(e.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	got, err := e.assignments.GetAssignment(ctx, asg.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.NotStarted, got.Status)
}

func Test_workReturnApi_query(t *testing.T) {
	e := setup(t)
	s1 := testutil.CreateStudent(t, e.identities, "s1@school.ma")
	s2 := testutil.CreateStudent(t, e.identities, "s2@school.ma")
	a1 := testutil.CreateAssignment(t, e.assignments, "Essay")
	a2 := testutil.CreateAssignment(t, e.assignments, "Lab")

	r1 := e.submit(t, upload{assignmentID: a1.ID, studentID: s1.ID, filename: "a.pdf", content: pdfBytes})
	r2 := e.submit(t, upload{assignmentID: a2.ID, studentID: s2.ID, filename: "b.docx", content: pdfBytes})
	r3 := e.submit(t, upload{assignmentID: a1.ID, studentID: s1.ID, filename: "a.pdf", content: pdfBytes})
	ghost := int64(999)
	_, err := e.workReturns.CreateWorkReturn(context.Background(), workreturn.WorkReturn{FilePath: "/uploads/x.pdf", StudentID: &ghost, AssignmentID: &a1.ID})
	require.NoError(t, err)

	ids := func(rs ...receipt) []int64 {
		res := make([]int64, 0, len(rs))
		for _, r := range rs {
			res = append(res, r.ID)
		}
		return res
	}

	tests := []struct {
		name     string
		query    string
		wantCode int
		want     []int64
	}{
		{name: "all drops orphans", query: "", wantCode: http.StatusOK, want: ids(r1, r2, r3)},
		{name: "by student", query: "?studentId=" + itoa(s1.ID), wantCode: http.StatusOK, want: ids(r1, r3)},
		{name: "by group", query: "?groupId=" + itoa(a2.GroupID), wantCode: http.StatusOK, want: ids(r2)},
		{name: "student wins", query: "?groupId=" + itoa(a2.GroupID) + "&studentId=" + itoa(s1.ID), wantCode: http.StatusOK, want: ids(r1, r3)},
		{name: "bad id", query: "?studentId=abc", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, "/workreturns"+tt.query)
			e.app.ServeHTTP(rec, req)
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			var wrs []workreturn.WorkReturn
			decode(t, rec, &wrs)
			got := make([]int64, 0, len(wrs))
			for _, wr := range wrs {
				got = append(got, wr.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_workReturnApi_update(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	student := testutil.CreateStudent(t, e.identities, "s@school.ma")
	asg := testutil.CreateAssignment(t, e.assignments, "Essay")
	r := e.submit(t, upload{assignmentID: asg.ID, studentID: student.ID, filename: "a.pdf", content: pdfBytes})
	unlinked, err := e.workReturns.CreateWorkReturn(ctx, workreturn.WorkReturn{FilePath: "/uploads/y.pdf"})
	require.NoError(t, err)

	path := "/workreturns/" + itoa(r.ID)
	graded := func(g string) []byte {
		return []byte(`{"id":` + itoa(r.ID) + `,"fileUrl":"` + r.FileURL + `","grade":` + g + `}`)
	}
	msg := func(m string) []byte { return marshallObj(t, httpErr{Message: m}) }

	tests := []httpTest{
		{name: "no grade key", path: path, body: []byte(`{}`), wantCode: http.StatusOK, wantData: graded("null")},
		{name: "out of range", path: path, body: []byte(`{"grade": 150}`), wantCode: http.StatusBadRequest, wantData: msg("Grade must be between 0 and 100")},
		{name: "negative", path: path, body: []byte(`{"grade": -5}`), wantCode: http.StatusBadRequest, wantData: msg("Grade must be between 0 and 100")},
		{name: "fraction", path: path, body: []byte(`{"grade": 85.5}`), wantCode: http.StatusBadRequest, wantData: msg("Invalid grade format")},
		{name: "text", path: path, body: []byte(`{"grade": "good"}`), wantCode: http.StatusBadRequest, wantData: msg("Invalid grade format")},
		{name: "unknown", path: "/workreturns/999", body: []byte(`{"grade": 50}`), wantCode: http.StatusNotFound, wantData: msg("WorkReturn not found")},
		{name: "unknown with null grade", path: "/workreturns/999", body: []byte(`{"grade": null}`), wantCode: http.StatusNotFound, wantData: msg("WorkReturn not found")},
		{name: "unknown with bad grade", path: "/workreturns/999", body: []byte(`{"grade": "x"}`), wantCode: http.StatusNotFound, wantData: msg("WorkReturn not found")},
		{name: "no student or assignment", path: "/workreturns/" + itoa(unlinked.ID), body: []byte(`{"grade": 50}`), wantCode: http.StatusBadRequest, wantData: msg("Student or assignment missing")},
		{name: "null without student or assignment", path: "/workreturns/" + itoa(unlinked.ID), body: []byte(`{"grade": null}`), wantCode: http.StatusBadRequest, wantData: msg("Student or assignment missing")},
		{name: "null before any grade", path: path, body: []byte(`{"grade": null}`), wantCode: http.StatusOK, wantData: graded("null")},
		{name: "numeric string", path: path, body: []byte(`{"grade": "70"}`), wantCode: http.StatusOK, wantData: graded("70")},
		{name: "regrade", path: path, body: []byte(`{"grade": 85}`), wantCode: http.StatusOK, wantData: graded("85")},
		{name: "no grade key keeps grade", path: path, body: []byte(`{"comment": "ok"}`), wantCode: http.StatusOK, wantData: graded("85")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPut, tt.path, tt.body)
			e.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	grades, err := e.grades.QueryGrades(ctx, grade.QueryFilter{StudentID: student.ID, AssignmentID: asg.ID})
	require.NoError(t, err)
	require.Len(t, grades, 1, "regrading updates the ledger entry in place")
	require.NotNil(t, grades[0].Score)
	assert.Equal(t, 85.0, *grades[0].Score)
}

func Test_workReturnApi_update_nullClearsGrade(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	student := testutil.CreateStudent(t, e.identities, "s@school.ma")
	asg := testutil.CreateAssignment(t, e.assignments, "Essay")
	r := e.submit(t, upload{assignmentID: asg.ID, studentID: student.ID, filename: "a.pdf", content: pdfBytes})
	path := "/workreturns/" + itoa(r.ID)
	graded := func(g string) []byte {
		return []byte(`{"id":` + itoa(r.ID) + `,"fileUrl":"` + r.FileURL + `","grade":` + g + `}`)
	}

	tests := []httpTest{
		{name: "grade", path: path, body: []byte(`{"grade": 80}`), wantCode: http.StatusOK, wantData: graded("80")},
		{name: "clear", path: path, body: []byte(`{"grade": null}`), wantCode: http.StatusOK, wantData: graded("null")},
	}
	for _, tt := range tests {
		req, rec := newRequest(http.MethodPut, tt.path, tt.body)
		e.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	}

	stored, err := e.workReturns.GetWorkReturn(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Grade)

	grades, err := e.grades.QueryGrades(ctx, grade.QueryFilter{StudentID: student.ID, AssignmentID: asg.ID})
	require.NoError(t, err)
	require.Len(t, grades, 1, "clearing keeps the ledger entry")
	assert.Nil(t, grades[0].Score)

	req, rec := newRequest(http.MethodGet, "/metrics")
	e.metrics.Handler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `schoolhub_grade_upserts_total{outcome="created",path="work-return"} 1`)
	assert.Contains(t, rec.Body.String(), `schoolhub_grade_upserts_total{outcome="updated",path="work-return"} 1`)
}

func Test_workReturnApi_submit_logsStudentOnServerError(t *testing.T) {
	e := setup(t)
	student := testutil.CreateStudent(t, e.identities, "s@school.ma")
	asg := testutil.CreateAssignment(t, e.assignments, "Essay")
	require.NoError(t, os.RemoveAll(e.uploadDir))

	req, rec := newUploadRequest(t, upload{assignmentID: asg.ID, studentID: student.ID, filename: "a.pdf", content: pdfBytes})
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())
	assert.Contains(t, e.logs.String(), "{Role:student ID:"+itoa(student.ID)+" ")
}

func Test_workReturnApi_download(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	student := testutil.CreateStudent(t, e.identities, "s@school.ma")
	asg := testutil.CreateAssignment(t, e.assignments, "Essay")

	docx := e.submit(t, upload{assignmentID: asg.ID, studentID: student.ID, filename: "report.docx", content: []byte("PK")})
	doc := e.submit(t, upload{assignmentID: asg.ID, studentID: student.ID, filename: "old.doc", content: []byte("DOC")})
	create := func(path string) int64 {
		wr, err := e.workReturns.CreateWorkReturn(ctx, workreturn.WorkReturn{FilePath: path, StudentID: &student.ID, AssignmentID: &asg.ID})
		require.NoError(t, err)
		return wr.ID
	}
	malformed := create("C:/files/essay.pdf")
	traversal := create("/uploads/../secret.pdf")
	missing := create("/uploads/gone.pdf")

	tests := []struct {
		name        string
		id          int64
		wantCode    int
		contentType string
	}{
		{name: "docx", id: docx.ID, wantCode: http.StatusOK, contentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{name: "doc", id: doc.ID, wantCode: http.StatusOK, contentType: "application/msword"},
		{name: "malformed locator", id: malformed, wantCode: http.StatusBadRequest},
		{name: "traversal", id: traversal, wantCode: http.StatusBadRequest},
		{name: "missing on disk", id: missing, wantCode: http.StatusNotFound},
		{name: "unknown record", id: 999, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, "/workreturns/"+itoa(tt.id)+"/download")
			e.app.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			}
		})
	}
}

func Test_workReturnApi_retrieveAndDestroy(t *testing.T) {
	e := setup(t)
	student := testutil.CreateStudent(t, e.identities, "s@school.ma")
	asg := testutil.CreateAssignment(t, e.assignments, "Essay")
	r := e.submit(t, upload{assignmentID: asg.ID, studentID: student.ID, filename: "a.pdf", content: pdfBytes})
	path := "/workreturns/" + itoa(r.ID)

	tests := []httpTest{
		{name: "retrieve", method: http.MethodGet, path: path, wantCode: http.StatusOK},
		{name: "bad id", method: http.MethodGet, path: "/workreturns/abc", wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Message: "Invalid id"})},
		{name: "destroy", method: http.MethodDelete, path: path, wantCode: http.StatusNoContent},
		{name: "retrieve deleted", method: http.MethodGet, path: path, wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Message: "WorkReturn not found"})},
		{name: "destroy deleted", method: http.MethodDelete, path: path, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path)
			e.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	entries, err := os.ReadDir(e.uploadDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the file outlives its record")
}
