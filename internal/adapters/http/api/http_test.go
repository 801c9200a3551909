package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/telescopium/polaralign/internal/adapters/http/api"
	service "github.com/telescopium/polaralign/internal/app"
	"github.com/telescopium/polaralign/pkg/logger"

	. "github.com/smartystreets/goconvey/convey"
)

func newTestServer() *httptest.Server {
	_ = logger.Init()
	ctx := context.Background()
	svc := service.New()
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	return httptest.NewServer(mux)
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

const (
	firstStarBody = `{
		"order": "first",
		"ra":  {"value": 3,  "unit": "hour"},
		"dec": {"value": 48, "unit": "deg"}
	}`
	secondStarBody = `{
		"order": "second",
		"ra":  {"value": 23, "unit": "hour"},
		"dec": {"value": 45, "unit": "deg"},
		"err_ra":  {"value": -12, "unit": "arcmin"},
		"err_dec": {"value": -21, "unit": "arcmin"}
	}`
)

// calibrate creates a session with the reference site and walks it
// through both calibration stars, returning the session id.
func calibrate(t *testing.T, base string) string {
	t.Helper()
	resp, body := postJSON(t, base+"/api/v1/sessions",
		`{"site": {"longitude": "-71:14:12.5", "latitude": "42:40", "height_m": 110}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status %d", resp.StatusCode)
	}
	id, _ := body["id"].(string)

	resp, _ = postJSON(t, base+"/api/v1/sessions/"+id+"/stars", firstStarBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first star: status %d", resp.StatusCode)
	}
	resp, _ = postJSON(t, base+"/api/v1/sessions/"+id+"/stars", secondStarBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second star: status %d", resp.StatusCode)
	}
	return id
}

func TestSessionLifecycle(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ts := newTestServer()
		defer ts.Close()

		Convey("When creating a session with no body", func() {
			resp, body := postJSON(t, ts.URL+"/api/v1/sessions", "")

			Convey("Then it uses the default site", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(body["id"], ShouldNotBeEmpty)
				st := body["site"].(map[string]any)
				So(st["longitude"], ShouldEqual, "-71:14:12.5")
				So(st["latitude"], ShouldEqual, "-29:56:29.7")
				So(body["aligned"], ShouldBeFalse)
			})
		})

		Convey("When walking through a full calibration", func() {
			id := calibrate(t, ts.URL)

			Convey("Then the session reports aligned with the solved offset", func() {
				resp, body := getJSON(t, ts.URL+"/api/v1/sessions/"+id)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["aligned"], ShouldBeTrue)

				off := body["offset"].(map[string]any)
				So(off["delta_alt_arcmin"].(float64), ShouldAlmostEqual, 7.3897, 1e-4)
				So(off["delta_az_arcmin"].(float64), ShouldAlmostEqual, 32.2597, 1e-4)
			})

			Convey("And the offset endpoint serves it directly", func() {
				resp, body := getJSON(t, ts.URL+"/api/v1/sessions/"+id+"/offset")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["delta_alt_arcmin"].(float64), ShouldAlmostEqual, 7.3897, 1e-4)
			})

			Convey("And a horizontal target transforms into the offset frame", func() {
				resp, body := postJSON(t, ts.URL+"/api/v1/sessions/"+id+"/transform", `{
					"time": "2020-04-15T20:49:48.560642Z",
					"alt": {"value": 70.40996928460122, "unit": "deg"},
					"az":  {"value": 51.17017631856635, "unit": "deg"}
				}`)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				// The reference rotation was generated from the offset
				// rounded to four arcminute decimals; the solved offset is
				// full precision, so allow for that rounding.
				So(body["az_deg"].(float64), ShouldAlmostEqual, 50.36605878470352, 1e-5)
				So(body["alt_deg"].(float64), ShouldAlmostEqual, 70.33162741801904, 1e-5)
			})

			Convey("And deleting the session removes it", func() {
				req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/sessions/"+id, nil)
				resp, err := http.DefaultClient.Do(req)
				So(err, ShouldBeNil)
				resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)

				resp2, _ := getJSON(t, ts.URL+"/api/v1/sessions/"+id)
				So(resp2.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When updating the site over the API", func() {
			_, body := postJSON(t, ts.URL+"/api/v1/sessions", "")
			id := body["id"].(string)

			req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/sessions/"+id+"/site",
				strings.NewReader(`{"longitude": "4:53:01.1", "latitude": "52:22:45.4", "height_m": 2}`))
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			var out map[string]any
			_ = json.NewDecoder(resp.Body).Decode(&out)
			resp.Body.Close()

			Convey("Then the session carries the new site", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				st := out["site"].(map[string]any)
				So(st["latitude"], ShouldEqual, "52:22:45.4")
			})
		})
	})
}

func TestSessionErrors(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ts := newTestServer()
		defer ts.Close()

		_, created := postJSON(t, ts.URL+"/api/v1/sessions", "")
		id := created["id"].(string)

		Convey("When recording a second star before the first", func() {
			resp, body := postJSON(t, ts.URL+"/api/v1/sessions/"+id+"/stars", secondStarBody)

			Convey("Then it conflicts with calibration_incomplete", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
				So(body["code"], ShouldEqual, "calibration_incomplete")
			})
		})

		Convey("When the star pair is singular", func() {
			resp, _ := postJSON(t, ts.URL+"/api/v1/sessions/"+id+"/stars", firstStarBody)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			resp, body := postJSON(t, ts.URL+"/api/v1/sessions/"+id+"/stars", `{
				"order": "second",
				"ra":  {"value": 3,  "unit": "hour"},
				"dec": {"value": 45, "unit": "deg"},
				"err_ra":  {"value": -12, "unit": "arcmin"},
				"err_dec": {"value": -21, "unit": "arcmin"}
			}`)

			Convey("Then it conflicts with singular_configuration", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
				So(body["code"], ShouldEqual, "singular_configuration")
			})
		})

		Convey("When reading the offset of an unaligned session", func() {
			resp, body := getJSON(t, ts.URL+"/api/v1/sessions/"+id+"/offset")

			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			So(body["code"], ShouldEqual, "not_aligned")
		})

		Convey("When supplying an unresolvable angle unit", func() {
			resp, body := postJSON(t, ts.URL+"/api/v1/sessions/"+id+"/stars", `{
				"order": "first",
				"ra":  {"value": 3,  "unit": "furlong"},
				"dec": {"value": 48, "unit": "deg"}
			}`)

			Convey("Then it is rejected as invalid_angle_unit", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "invalid_angle_unit")
			})
		})

		Convey("When the star order is unknown", func() {
			resp, body := postJSON(t, ts.URL+"/api/v1/sessions/"+id+"/stars", `{
				"order": "third",
				"ra":  {"value": 3,  "unit": "hour"},
				"dec": {"value": 48, "unit": "deg"}
			}`)

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "bad_request")
		})

		Convey("When transforming without a target", func() {
			resp, body := postJSON(t, ts.URL+"/api/v1/sessions/"+id+"/transform",
				`{"time": "2020-04-15T20:49:48.560642Z"}`)

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "bad_request")
		})

		Convey("When addressing an unknown session", func() {
			resp, body := getJSON(t, ts.URL+"/api/v1/sessions/no-such-session/offset")

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			So(body["code"], ShouldEqual, "not_found")
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ts := newTestServer()
		defer ts.Close()

		Convey("When probing health", func() {
			resp, body := getJSON(t, ts.URL+"/healthz")

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "ok")
		})

		Convey("When reading stats", func() {
			_, created := postJSON(t, ts.URL+"/api/v1/sessions", "")
			So(created["id"], ShouldNotBeEmpty)

			resp, body := getJSON(t, ts.URL+"/stats")

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["started"], ShouldBeTrue)
			So(body["sessions"].(float64), ShouldEqual, 1)
			So(body["default_site"], ShouldNotBeEmpty)
		})

		Convey("When scraping metrics", func() {
			resp, err := http.Get(ts.URL + "/metrics")
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("When reading the pointing of a fresh session", func() {
			_, created := postJSON(t, ts.URL+"/api/v1/sessions", "")
			id := created["id"].(string)

			resp, body := getJSON(t, ts.URL+"/api/v1/sessions/"+id+
				"/pointing?time=2020-04-15T20:49:48.560642Z")

			Convey("Then it reports the zenith", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["ra_hours"].(float64), ShouldAlmostEqual, 85.68579143410962/15, 1e-8)
				So(body["dec_deg"].(float64), ShouldAlmostEqual, -29.941583333333334, 1e-8)
			})
		})
	})
}
