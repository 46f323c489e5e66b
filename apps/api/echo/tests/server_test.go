package tests

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
)

func Test_server(t *testing.T) {
	reg := prometheus.NewRegistry()
	env := setup(t, func(deps *echoapi.Deps) { deps.Registerer = reg })

	env.run(t, []httpTest{
		{name: "health", path: "/health", wantData: marchallObj(t, map[string]string{"status": "ok", "build": "test"})},
		{name: "unknown route", path: "/api/v1/nothing-here", wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Not Found"})},
		{name: "trailing slash", path: "/health/"},
		{name: "head", method: http.MethodHead, path: "/api/v1/nothing-here", wantCode: http.StatusNotFound},
	})

	rec := env.serve(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Darasa API!", rec.Body.String())

	families, err := reg.Gather()
	require.NoError(t, err)
	counts := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "darasa_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var route, code string
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "route":
					route = lp.GetValue()
				case "code":
					code = lp.GetValue()
				}
			}
			counts[route+" "+code] += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, counts["/health 200"])
	assert.Equal(t, 1.0, counts["/ 200"])
}
