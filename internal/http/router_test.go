package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/levelsnap-backend/internal/cache"
	httpH "github.com/yungbote/levelsnap-backend/internal/http/handlers"
	"github.com/yungbote/levelsnap-backend/internal/inference/config"
	"github.com/yungbote/levelsnap-backend/internal/inference/engine/mock"
	"github.com/yungbote/levelsnap-backend/internal/observability"
	"github.com/yungbote/levelsnap-backend/internal/pipeline"
	"github.com/yungbote/levelsnap-backend/internal/scene"
	"github.com/yungbote/levelsnap-backend/internal/services"
	"github.com/yungbote/levelsnap-backend/internal/store"
)

type testAPI struct {
	router  *gin.Engine
	engine  *mock.Engine
	metrics *observability.Metrics
}

type apiOptions struct {
	replies  []string
	withRuns bool
	maxBytes int64
	checks   map[string]httpH.ReadinessCheck
}

func newTestAPI(t *testing.T, opts apiOptions) testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var runs store.RunRepo
	if opts.withRuns {
		db, err := store.Open(config.StoreConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "runs.db")}, nil)
		require.NoError(t, err)
		t.Cleanup(func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		runs = store.NewRunRepo(db, nil)
	}

	eng := mock.New(opts.replies...)
	m := observability.NewMetrics()
	p := pipeline.New(eng, "mock-1", nil, pipeline.Options{})
	svc := services.NewSceneService(nil, p, cache.NewMemory(), runs, m, services.SceneServiceOptions{Model: "mock-1"})

	maxBytes := opts.maxBytes
	if maxBytes == 0 {
		maxBytes = 8 << 20
	}
	r := NewRouter(RouterConfig{
		Metrics:         m,
		MaxRequestBytes: maxBytes,
		RequestTimeout:  10 * time.Second,
		HealthHandler:   httpH.NewHealthHandler(opts.checks),
		SceneHandler:    httpH.NewSceneHandler(nil, svc),
		RunHandler:      httpH.NewRunHandler(svc),
	})
	return testAPI{router: r, engine: eng, metrics: m}
}

func (a testAPI) do(req *nethttp.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, target string, images [][]byte, fields map[string]string) *nethttp.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for i, img := range images {
		fw, err := mw.CreateFormFile("image", fmt.Sprintf("photo-%d.png", i))
		require.NoError(t, err)
		_, err = fw.Write(img)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(nethttp.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type sceneBody struct {
	RunID      string          `json:"run_id"`
	Scene      json.RawMessage `json:"scene"`
	Provenance string          `json:"provenance"`
	ModelCalls int             `json:"model_calls"`
	Cached     bool            `json:"cached"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Param   string `json:"param"`
	} `json:"error"`
}

func TestGenerateScene_Multipart(t *testing.T) {
	api := newTestAPI(t, apiOptions{withRuns: true})

	rec := api.do(multipartRequest(t, "/v1/scenes", [][]byte{testPNG(t, 40, 30)}, nil))
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	out := decodeBody[sceneBody](t, rec)
	assert.Equal(t, "ai", out.Provenance)
	assert.Equal(t, 1, out.ModelCalls)
	assert.False(t, out.Cached)

	sc, err := scene.ValidateJSON(out.Scene)
	require.NoError(t, err)
	assert.Len(t, sc.Objects, 4)

	run := api.do(httptest.NewRequest(nethttp.MethodGet, "/v1/runs/"+out.RunID, nil))
	require.Equal(t, nethttp.StatusOK, run.Code, run.Body.String())
	got := decodeBody[struct {
		Run store.GenerationRun `json:"run"`
	}](t, run)
	assert.Equal(t, "image/png", got.Run.MimeType)
	assert.Equal(t, 40, got.Run.Width)
	assert.Equal(t, 30, got.Run.Height)
}

func TestGenerateScene_RawBodyWithDimensions(t *testing.T) {
	api := newTestAPI(t, apiOptions{withRuns: true})

	req := httptest.NewRequest(nethttp.MethodPost, "/v1/scenes?width=1024&height=768", bytes.NewReader(testPNG(t, 16, 12)))
	req.Header.Set("Content-Type", "image/png")
	rec := api.do(req)
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())

	runs := api.do(httptest.NewRequest(nethttp.MethodGet, "/v1/runs?limit=5", nil))
	require.Equal(t, nethttp.StatusOK, runs.Code)
	list := decodeBody[struct {
		Runs []store.GenerationRun `json:"runs"`
	}](t, runs)
	require.Len(t, list.Runs, 1)
	assert.Equal(t, 1024, list.Runs[0].Width)
	assert.Equal(t, 768, list.Runs[0].Height)
}

func TestGenerateScene_CachedSecondRequest(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	img := testPNG(t, 20, 20)

	first := api.do(multipartRequest(t, "/v1/scenes", [][]byte{img}, nil))
	require.Equal(t, nethttp.StatusOK, first.Code)
	second := api.do(multipartRequest(t, "/v1/scenes", [][]byte{img}, nil))
	require.Equal(t, nethttp.StatusOK, second.Code)

	out := decodeBody[sceneBody](t, second)
	assert.True(t, out.Cached)
	assert.Zero(t, out.ModelCalls)
	assert.Equal(t, 1, api.engine.Calls())
}

func TestGenerateScene_FallbackIsStill200(t *testing.T) {
	api := newTestAPI(t, apiOptions{replies: []string{"I see a cat.", "still no json"}})

	rec := api.do(multipartRequest(t, "/v1/scenes", [][]byte{testPNG(t, 8, 8)}, nil))
	require.Equal(t, nethttp.StatusOK, rec.Code)

	out := decodeBody[sceneBody](t, rec)
	assert.Equal(t, "fallback", out.Provenance)
	assert.Equal(t, 2, out.ModelCalls)
	keys := decodeBody[map[string]json.RawMessage](t, rec)
	assert.NotContains(t, keys, "errors")

	want, err := json.Marshal(scene.Fallback())
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(out.Scene))
	assert.Equal(t, 1.0, api.metrics.SceneCount("fallback"))
}

func TestGenerateScene_UploadErrors(t *testing.T) {
	img := testPNG(t, 4, 4)

	cases := []struct {
		name   string
		req    func(t *testing.T) *nethttp.Request
		status int
		code   string
		param  string
	}{
		{
			name: "empty raw body",
			req: func(t *testing.T) *nethttp.Request {
				return httptest.NewRequest(nethttp.MethodPost, "/v1/scenes", nil)
			},
			status: nethttp.StatusBadRequest,
			code:   "missing_image",
		},
		{
			name: "multipart without image",
			req: func(t *testing.T) *nethttp.Request {
				return multipartRequest(t, "/v1/scenes", nil, map[string]string{"width": "10"})
			},
			status: nethttp.StatusBadRequest,
			code:   "missing_image",
		},
		{
			name: "two images",
			req: func(t *testing.T) *nethttp.Request {
				return multipartRequest(t, "/v1/scenes", [][]byte{img, img}, nil)
			},
			status: nethttp.StatusBadRequest,
			code:   "too_many_images",
		},
		{
			name: "bad width",
			req: func(t *testing.T) *nethttp.Request {
				return multipartRequest(t, "/v1/scenes", [][]byte{img}, map[string]string{"width": "-3"})
			},
			status: nethttp.StatusBadRequest,
			code:   "invalid_param",
			param:  "width",
		},
		{
			name: "bad height query",
			req: func(t *testing.T) *nethttp.Request {
				r := httptest.NewRequest(nethttp.MethodPost, "/v1/scenes?height=tall", bytes.NewReader(img))
				r.Header.Set("Content-Type", "image/png")
				return r
			},
			status: nethttp.StatusBadRequest,
			code:   "invalid_param",
			param:  "height",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPI(t, apiOptions{})
			rec := api.do(tc.req(t))
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			body := decodeBody[errorBody](t, rec)
			assert.Equal(t, tc.code, body.Error.Code)
			assert.Equal(t, tc.param, body.Error.Param)
			assert.NotEmpty(t, body.Error.Message)
			assert.Zero(t, api.engine.Calls())
		})
	}
}

func TestGenerateScene_BodyTooLarge(t *testing.T) {
	api := newTestAPI(t, apiOptions{maxBytes: 64})

	req := httptest.NewRequest(nethttp.MethodPost, "/v1/scenes", bytes.NewReader(bytes.Repeat([]byte{0xff}, 1024)))
	req.Header.Set("Content-Type", "image/jpeg")
	rec := api.do(req)
	require.Equal(t, nethttp.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "request_too_large", decodeBody[errorBody](t, rec).Error.Code)
	assert.Zero(t, api.engine.Calls())
}

func TestValidateScene(t *testing.T) {
	api := newTestAPI(t, apiOptions{})

	rec := api.do(httptest.NewRequest(nethttp.MethodPost, "/v1/scenes/validate", strings.NewReader("Sure! "+mock.DefaultReply)))
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	ok := decodeBody[struct {
		Valid             bool     `json:"valid"`
		EnemySpawnAnchors []string `json:"enemy_spawn_anchors"`
	}](t, rec)
	assert.True(t, ok.Valid)
	assert.Equal(t, []string{"plant"}, ok.EnemySpawnAnchors)
}

func TestValidateScene_Rejections(t *testing.T) {
	api := newTestAPI(t, apiOptions{})

	var objects []string
	for i := 0; i < 13; i++ {
		objects = append(objects, fmt.Sprintf(`{"id":"p%d","type":"platform","bounds_normalized":{"x":0,"y":0.5,"w":0.1,"h":0.05}}`, i))
	}
	overCap := fmt.Sprintf(`{"version":1,"image":{"w":800,"h":600},"objects":[%s],`+
		`"spawns":{"player":{"x":0.1,"y":0.9},"exit":{"x":0.9,"y":0.9}}}`, strings.Join(objects, ","))

	type rejection struct {
		Valid  bool `json:"valid"`
		Errors struct {
			Structural []scene.FieldError `json:"structural"`
			Semantic   []scene.FieldError `json:"semantic"`
		} `json:"errors"`
	}

	rec := api.do(httptest.NewRequest(nethttp.MethodPost, "/v1/scenes/validate", strings.NewReader(overCap)))
	require.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	got := decodeBody[rejection](t, rec)
	assert.False(t, got.Valid)
	assert.Empty(t, got.Errors.Structural)
	require.Len(t, got.Errors.Semantic, 1)
	assert.Equal(t, "objects", got.Errors.Semantic[0].Path)
	assert.Contains(t, got.Errors.Semantic[0].Message, "platform")

	rec = api.do(httptest.NewRequest(nethttp.MethodPost, "/v1/scenes/validate", strings.NewReader("no json here")))
	require.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)
	got = decodeBody[rejection](t, rec)
	require.Len(t, got.Errors.Structural, 1)
	assert.NotNil(t, got.Errors.Semantic)
}

func TestFallbackScene(t *testing.T) {
	api := newTestAPI(t, apiOptions{})

	rec := api.do(httptest.NewRequest(nethttp.MethodGet, "/v1/scenes/fallback", nil))
	require.Equal(t, nethttp.StatusOK, rec.Code)
	out := decodeBody[struct {
		Scene json.RawMessage `json:"scene"`
	}](t, rec)
	sc, err := scene.ValidateJSON(out.Scene)
	require.NoError(t, err)
	assert.Equal(t, scene.Fallback(), sc)
}

func TestRuns_Errors(t *testing.T) {
	disabled := newTestAPI(t, apiOptions{})
	rec := disabled.do(httptest.NewRequest(nethttp.MethodGet, "/v1/runs", nil))
	require.Equal(t, nethttp.StatusNotFound, rec.Code)
	assert.Equal(t, "runs_disabled", decodeBody[errorBody](t, rec).Error.Code)

	api := newTestAPI(t, apiOptions{withRuns: true})
	rec = api.do(httptest.NewRequest(nethttp.MethodGet, "/v1/runs/not-a-uuid", nil))
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	rec = api.do(httptest.NewRequest(nethttp.MethodGet, "/v1/runs/6f1c8d8e-1b7e-4a53-9a57-0d5c4a1f2b3c", nil))
	require.Equal(t, nethttp.StatusNotFound, rec.Code)
	assert.Equal(t, "run_not_found", decodeBody[errorBody](t, rec).Error.Code)

	rec = api.do(httptest.NewRequest(nethttp.MethodGet, "/v1/runs?limit=zero", nil))
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestHealthAndReadiness(t *testing.T) {
	api := newTestAPI(t, apiOptions{checks: map[string]httpH.ReadinessCheck{
		"store": func(context.Context) error { return errors.New("database is locked") },
	}})

	rec := api.do(httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = api.do(httptest.NewRequest(nethttp.MethodGet, "/readyz", nil))
	require.Equal(t, nethttp.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database is locked")

	ready := newTestAPI(t, apiOptions{})
	rec = ready.do(httptest.NewRequest(nethttp.MethodGet, "/readyz", nil))
	assert.Equal(t, nethttp.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	api.do(httptest.NewRequest(nethttp.MethodGet, "/v1/scenes/fallback", nil))

	rec := api.do(httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `levelsnap_api_requests_total{method="GET",route="/v1/scenes/fallback",status="200"} 1`)
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	api.router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	rec := api.do(httptest.NewRequest(nethttp.MethodGet, "/boom", nil))
	require.Equal(t, nethttp.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeBody[errorBody](t, rec).Error.Code)
}
