package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douaaea/schoolhub/core/assignment"
	"github.com/douaaea/schoolhub/tests"
)

func Test_assignmentApi_create(t *testing.T) {
	e := setup(t)
	subject := testutil.CreateRef(t, e.assignments, assignment.RefSubject, "Maths")
	group := testutil.CreateRef(t, e.assignments, assignment.RefGroup, "G1")
	program := testutil.CreateRef(t, e.assignments, assignment.RefProgram, "Bachelor")

	body := func(title string, s, g, p int64) []byte {
		return marshallObj(t, assignment.NewAssignment{Title: title, SubjectID: s, GroupID: g, ProgramID: p})
	}
	msg := func(m string) []byte { return marshallObj(t, httpErr{Message: m}) }

	tests := []httpTest{
		{name: "malformed body", body: []byte(`{"title":`), wantCode: http.StatusBadRequest},
		{name: "missing title", body: body("  ", subject, group, program), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Message: "Invalid request", Fields: map[string]string{"title": "this field is required"}})},
		{name: "missing refs", body: body("Essay", subject, 0, program), wantCode: http.StatusBadRequest, wantData: msg("Subject, group, and program are required")},
		{name: "unknown group", body: body("Essay", subject, 42, program), wantCode: http.StatusBadRequest, wantData: msg("Group not found")},
		{name: "unknown program", body: body("Essay", subject, group, 42), wantCode: http.StatusBadRequest, wantData: msg("Program not found")},
		{name: "success", body: body("Essay", subject, group, program), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/assignments", tt.body)
			e.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
			if tt.wantCode != http.StatusCreated {
				return
			}
			var asg assignment.Assignment
			decode(t, rec, &asg)
			assert.NotZero(t, asg.ID)
			assert.Equal(t, assignment.NotStarted, asg.Status)
		})
	}
}

func Test_assignmentApi_query(t *testing.T) {
	e := setup(t)
	a1 := testutil.CreateAssignment(t, e.assignments, "Essay")
	a2 := testutil.CreateAssignment(t, e.assignments, "Lab")

	tests := []struct {
		name     string
		path     string
		wantCode int
		want     []int64
	}{
		{name: "all", path: "/assignments", wantCode: http.StatusOK, want: []int64{a1.ID, a2.ID}},
		{name: "by group", path: "/assignments/group/" + itoa(a2.GroupID), wantCode: http.StatusOK, want: []int64{a2.ID}},
		{name: "empty group", path: "/assignments/group/404", wantCode: http.StatusOK, want: []int64{}},
		{name: "bad group", path: "/assignments/group/abc", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			e.app.ServeHTTP(rec, req)
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			var asgs []assignment.Assignment
			decode(t, rec, &asgs)
			got := make([]int64, 0, len(asgs))
			for _, a := range asgs {
				got = append(got, a.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_assignmentApi_retrieve(t *testing.T) {
	e := setup(t)
	asg := testutil.CreateAssignment(t, e.assignments, "Essay")

	tests := []httpTest{
		{name: "found", path: "/assignments/" + itoa(asg.ID), wantCode: http.StatusOK, wantData: marshallObj(t, asg)},
		{name: "unknown", path: "/assignments/999", wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Message: "Assignment not found"})},
		{name: "bad id", path: "/assignments/0", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			e.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
