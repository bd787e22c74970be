package daemon

import (
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"

	"github.com/maniglio/tinge/pkg/calibration"
	"github.com/maniglio/tinge/pkg/chroma"
)

// doRequest runs one request against the daemon routes. A JSON body is
// passed as its already-encoded string form.
func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestColorEndpoints(t *testing.T) {
	// With default ceilings (1000) these raws normalize to RGB(204, 102, 25),
	// an orange.
	setupTestDaemon(t, stubTransport{ambient: 500, red: 800, green: 400, blue: 100})
	router := setupRoutes()

	w := doRequest(t, router, http.MethodGet, "/color/rgb", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /color/rgb status = %d, want %d", w.Code, http.StatusOK)
	}
	rgb := decodeBody[chroma.RGB](t, w)
	if diff := cmp.Diff(chroma.RGB{R: 204, G: 102, B: 25}, rgb); diff != "" {
		t.Errorf("GET /color/rgb mismatch (-want +got):\n%s", diff)
	}

	w = doRequest(t, router, http.MethodGet, "/color/raw", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /color/raw status = %d, want %d", w.Code, http.StatusOK)
	}
	raw := decodeBody[chroma.RawReading](t, w)
	if diff := cmp.Diff(chroma.RawReading{Ambient: 500, Red: 800, Green: 400, Blue: 100}, raw); diff != "" {
		t.Errorf("GET /color/raw mismatch (-want +got):\n%s", diff)
	}

	w = doRequest(t, router, http.MethodGet, "/color/hex", "")
	if got := decodeBody[string](t, w); got != "#CC6619" {
		t.Errorf("GET /color/hex = %q, want %q", got, "#CC6619")
	}

	w = doRequest(t, router, http.MethodGet, "/color/hsv", "")
	hsv := decodeBody[chroma.HSV](t, w)
	if hsv.H < 25 || hsv.H > 27 {
		t.Errorf("GET /color/hsv hue = %v, want about 26", hsv.H)
	}

	w = doRequest(t, router, http.MethodGet, "/color/name", "")
	if got := decodeBody[string](t, w); got != "Orange" {
		t.Errorf("GET /color/name = %q, want %q", got, "Orange")
	}

	w = doRequest(t, router, http.MethodGet, "/color/name?tolerance=0.5", "")
	if w.Code != http.StatusOK {
		t.Errorf("GET /color/name?tolerance=0.5 status = %d, want %d", w.Code, http.StatusOK)
	}

	w = doRequest(t, router, http.MethodGet, "/color/name?tolerance=abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("GET /color/name?tolerance=abc status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestMatchEndpoints(t *testing.T) {
	setupTestDaemon(t, stubTransport{ambient: 500, red: 800, green: 400, blue: 100})
	router := setupRoutes()

	w := doRequest(t, router, http.MethodPost, "/color/match", `{"color":"Orange"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /color/match status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := decodeBody[bool](t, w); !got {
		t.Errorf("POST /color/match Orange = false, want true")
	}

	w = doRequest(t, router, http.MethodPost, "/color/match", `{"color":"Blue"}`)
	if got := decodeBody[bool](t, w); got {
		t.Errorf("POST /color/match Blue = true, want false")
	}

	w = doRequest(t, router, http.MethodPost, "/color/match", `{"color":"Vermilion"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST /color/match with unknown color status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = doRequest(t, router, http.MethodPost, "/color/range", `{"hueMin":20,"hueMax":50,"satMin":0.5,"satMax":1,"valMin":0.5,"valMax":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /color/range status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := decodeBody[bool](t, w); !got {
		t.Errorf("POST /color/range orange box = false, want true")
	}

	w = doRequest(t, router, http.MethodPost, "/color/range", `{"hueMin":200,"hueMax":260,"satMin":0.5,"satMax":1,"valMin":0.5,"valMax":1}`)
	if got := decodeBody[bool](t, w); got {
		t.Errorf("POST /color/range blue box = true, want false")
	}
}

func TestCalibrationEndpoints(t *testing.T) {
	setupTestDaemon(t, stubTransport{ambient: 500, red: 800, green: 400, blue: 100})
	router := setupRoutes()

	w := doRequest(t, router, http.MethodGet, "/calibration", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /calibration status = %d, want %d", w.Code, http.StatusOK)
	}
	ov := decodeBody[calibration.Overview](t, w)
	if ov.Status != calibration.Uncalibrated {
		t.Errorf("initial calibration status = %v, want %v", ov.Status, calibration.Uncalibrated)
	}

	w = doRequest(t, router, http.MethodPost, "/calibration", `{"seconds":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /calibration status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	report := decodeBody[calibration.Report](t, w)
	if report.Status != calibration.Calibrated {
		t.Errorf("report status = %v, want %v", report.Status, calibration.Calibrated)
	}
	if report.Ceilings.Red != 800 {
		t.Errorf("report red ceiling = %d, want 800", report.Ceilings.Red)
	}

	w = doRequest(t, router, http.MethodGet, "/calibration", "")
	ov = decodeBody[calibration.Overview](t, w)
	if ov.Status != calibration.Calibrated {
		t.Errorf("calibration status after run = %v, want %v", ov.Status, calibration.Calibrated)
	}
	if ov.Report == nil {
		t.Errorf("calibration overview should carry the last report")
	}

	w = doRequest(t, router, http.MethodPost, "/calibration/defaults", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /calibration/defaults status = %d, want %d", w.Code, http.StatusCreated)
	}
	ov = decodeBody[calibration.Overview](t, w)
	if ov.Status != calibration.CalibratedDefaults {
		t.Errorf("status after defaults = %v, want %v", ov.Status, calibration.CalibratedDefaults)
	}
	if ov.Ceilings != calibration.DefaultCeilings() {
		t.Errorf("ceilings after defaults = %+v, want defaults", ov.Ceilings)
	}
}

func TestScheduleEndpoints(t *testing.T) {
	setupTestDaemon(t, stubTransport{ambient: 500, red: 800, green: 400, blue: 100})
	router := setupRoutes()

	w := doRequest(t, router, http.MethodGet, "/schedule", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /schedule status = %d, want %d", w.Code, http.StatusOK)
	}
	st := decodeBody[calibration.Schedule](t, w)
	if st.Running || st.Cron != "" {
		t.Errorf("initial schedule = %+v, want disabled", st)
	}

	w = doRequest(t, router, http.MethodPut, "/schedule", `"0 3 * * *"`)
	if w.Code != http.StatusCreated {
		t.Fatalf("PUT /schedule status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	nextRuns := decodeBody[[]string](t, w)
	if len(nextRuns) != 3 {
		t.Errorf("PUT /schedule returned %d next runs, want 3", len(nextRuns))
	}

	w = doRequest(t, router, http.MethodGet, "/schedule", "")
	st = decodeBody[calibration.Schedule](t, w)
	if !st.Running || st.Cron != "0 3 * * *" {
		t.Errorf("schedule after set = %+v, want running with cron", st)
	}
	if len(st.NextRuns) != 3 {
		t.Errorf("schedule reports %d next runs, want 3", len(st.NextRuns))
	}

	w = doRequest(t, router, http.MethodPost, "/schedule/postpone", `"10m"`)
	if w.Code != http.StatusCreated {
		t.Errorf("POST /schedule/postpone status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	w = doRequest(t, router, http.MethodPost, "/schedule/postpone", `"not a duration"`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST /schedule/postpone with bad duration status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = doRequest(t, router, http.MethodPost, "/schedule/skip", "")
	if w.Code != http.StatusCreated {
		t.Errorf("POST /schedule/skip status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	w = doRequest(t, router, http.MethodPut, "/schedule", `"three teas at three"`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("PUT /schedule with bad cron status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = doRequest(t, router, http.MethodPut, "/schedule", `""`)
	if w.Code != http.StatusCreated {
		t.Fatalf("PUT /schedule disable status = %d, want %d", w.Code, http.StatusCreated)
	}
	if conf.ScheduleCron() != "" {
		t.Errorf("cron after disable = %q, want empty", conf.ScheduleCron())
	}
}

func TestKnobEndpoints(t *testing.T) {
	setupTestDaemon(t, stubTransport{ambient: 500, red: 800, green: 400, blue: 100})
	router := setupRoutes()

	w := doRequest(t, router, http.MethodPut, "/poll-interval", `"250ms"`)
	if w.Code != http.StatusCreated {
		t.Fatalf("PUT /poll-interval status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if got := conf.PollInterval(); got.Milliseconds() != 250 {
		t.Errorf("poll interval after set = %v, want 250ms", got)
	}

	w = doRequest(t, router, http.MethodPut, "/poll-interval", `"50ms"`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("PUT /poll-interval below floor status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = doRequest(t, router, http.MethodPut, "/poll-interval", `"fast"`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("PUT /poll-interval with bad duration status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = doRequest(t, router, http.MethodPut, "/tolerance", `0.25`)
	if w.Code != http.StatusCreated {
		t.Fatalf("PUT /tolerance status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if got := conf.Tolerance(); got != 0.25 {
		t.Errorf("tolerance after set = %v, want 0.25", got)
	}

	w = doRequest(t, router, http.MethodPut, "/tolerance", `1.5`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("PUT /tolerance out of range status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSwatchEndpoint(t *testing.T) {
	setupTestDaemon(t, stubTransport{ambient: 500, red: 800, green: 400, blue: 100})
	router := setupRoutes()

	w := doRequest(t, router, http.MethodGet, "/swatch?size=32", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /swatch status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("swatch Content-Type = %q, want image/png", ct)
	}

	img, err := imaging.Decode(w.Body)
	if err != nil {
		t.Fatalf("decode swatch: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Errorf("swatch size = %dx%d, want 32x32", img.Bounds().Dx(), img.Bounds().Dy())
	}
	got := color.NRGBAModel.Convert(img.At(16, 16)).(color.NRGBA)
	if got.R != 204 || got.G != 102 || got.B != 25 {
		t.Errorf("swatch pixel = %+v, want RGB(204, 102, 25)", got)
	}

	w = doRequest(t, router, http.MethodGet, "/swatch?size=huge", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("GET /swatch with bad size status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestVersionEndpoint(t *testing.T) {
	setupTestDaemon(t, stubTransport{ambient: 500, red: 800, green: 400, blue: 100})
	router := setupRoutes()

	w := doRequest(t, router, http.MethodGet, "/version", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /version status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := decodeBody[string](t, w); got == "" {
		t.Errorf("GET /version returned empty version")
	}
}
