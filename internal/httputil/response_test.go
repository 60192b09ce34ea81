package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/galaxygroups/internal/monitoring"
	"github.com/banshee-data/galaxygroups/internal/testutil"
)

func TestWriteJSONOK(t *testing.T) {
	rec := testutil.NewTestRecorder()
	WriteJSONOK(rec, map[string]int{"groups": 2})

	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"groups": 2}`, rec.Body.String())
}

func TestErrorResponses(t *testing.T) {
	warnf := monitoring.Warnf
	t.Cleanup(func() { monitoring.Warnf = warnf })
	var warned []string
	monitoring.Warnf = func(format string, v ...interface{}) { warned = append(warned, format) }

	testCases := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		msg    string
	}{
		{"bad_request", func(w http.ResponseWriter) { BadRequest(w, "bad index") }, http.StatusBadRequest, "bad index"},
		{"not_found", func(w http.ResponseWriter) { NotFound(w, "no such run") }, http.StatusNotFound, "no such run"},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, errors.New("disk full")) }, http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := testutil.NewTestRecorder()
			tc.write(rec)
			testutil.AssertStatusCode(t, rec.Code, tc.status)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, ErrorResponse{Error: tc.msg, Status: tc.status}, body)
		})
	}
	assert.Len(t, warned, 1)
}
