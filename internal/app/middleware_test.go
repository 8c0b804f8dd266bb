package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutSkipsEventStreams(t *testing.T) {
	var hasDeadline bool
	handler := timeoutUnlessStream(time.Minute, []string{EventsPath})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}))

	cases := []struct {
		name     string
		path     string
		accept   string
		deadline bool
	}{
		{name: "events path without accept header", path: EventsPath, deadline: false},
		{name: "event stream accept header", path: "/api/suppliers", accept: "text/event-stream", deadline: false},
		{name: "plain api request", path: "/api/suppliers", accept: "application/json", deadline: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.accept != "" {
				req.Header.Set("Accept", tc.accept)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.deadline, hasDeadline)
		})
	}
}
