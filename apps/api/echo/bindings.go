package echoapi

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/douaaea/schoolhub/core"
)

// pathID parses the `:name` path parameter.
func pathID(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// queryID parses an optional numeric query parameter; absent or blank yields 0.
func queryID(ctx echo.Context, name string) (int64, error) {
	id, err := core.ParseID(ctx.QueryParam(name))
	if err != nil {
		return 0, core.NewValidationError(err, core.FieldError{Field: name, Error: "must be a number"})
	}
	return id, nil
}

// optionalGrade tells an absent grade apart from a null or malformed one.
// Integers and integer strings are accepted; null clears the grade (Value stays nil);
// anything else is Invalid.
type optionalGrade struct {
	Set     bool
	Invalid bool
	Value   *int
}

func (g *optionalGrade) UnmarshalJSON(b []byte) error {
	g.Set = true
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			g.Invalid = true
			return nil
		}
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		g.Invalid = true
		return nil
	}
	g.Value = &v
	return nil
}

type UpdateWorkReturn struct {
	Grade optionalGrade `json:"grade"`
}
