package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/textfeat/pkg/features"
	"github.com/samcharles93/textfeat/pkg/tensor"
	"github.com/samcharles93/textfeat/pkg/text"
)

func newTestEcho(t *testing.T) (*echo.Echo, *Server) {
	t.Helper()

	raw, err := features.NewText(nil, nil)
	require.NoError(t, err)

	enc, err := text.NewByteEncoder("<eos>")
	require.NoError(t, err)
	body, err := features.NewText(enc, nil)
	require.NoError(t, err)

	pending, err := features.NewText(nil, &text.EncoderConfig{Kind: text.KindSubword, VocabSize: 512})
	require.NoError(t, err)

	server := NewServer(map[string]*features.Text{
		"title":   raw,
		"body":    body,
		"pending": pending,
	}, nil)
	e := echo.New()
	server.Register(e)
	return e, server
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorEnvelope struct {
	Error ResponseError `json:"error"`
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	e, _ := newTestEcho(t)

	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()
	e, _ := newTestEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestListFeatures(t *testing.T) {
	t.Parallel()
	e, _ := newTestEcho(t)

	rec := doJSON(t, e, http.MethodGet, "/v1/features", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	list := decodeBody[struct {
		Object string            `json:"object"`
		Data   []FeatureResponse `json:"data"`
	}](t, rec)
	assert.Equal(t, "list", list.Object)
	require.Len(t, list.Data, 3)
	assert.Equal(t, []string{"body", "pending", "title"},
		[]string{list.Data[0].Name, list.Data[1].Name, list.Data[2].Name})
}

func TestGetFeature(t *testing.T) {
	t.Parallel()
	e, _ := newTestEcho(t)

	tests := []struct {
		name      string
		encoded   bool
		kind      string
		vocabSize int
		tensor    tensor.Info
	}{
		{"title", false, "", 0, tensor.Scalar(tensor.DTypeString)},
		{"body", true, "byte", 258, tensor.Vector(tensor.Unknown, tensor.DTypeI64)},
		{"pending", false, "subword", 512, tensor.Scalar(tensor.DTypeString)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodGet, "/v1/features/"+tc.name, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			got := decodeBody[FeatureResponse](t, rec)
			assert.Equal(t, tc.name, got.Name)
			assert.Equal(t, tc.encoded, got.Encoded)
			assert.Equal(t, tc.kind, got.Kind)
			assert.Equal(t, tc.vocabSize, got.VocabSize)
			assert.True(t, tc.tensor.Equal(got.Tensor), got.Tensor.String())
		})
	}

	rec := doJSON(t, e, http.MethodGet, "/v1/features/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeBody[errorEnvelope](t, rec)
	assert.Equal(t, "not_found_error", env.Error.Type)
}

func TestEncodeWithEncoder(t *testing.T) {
	t.Parallel()
	e, _ := newTestEcho(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/features/body/encode", `{"input":["hi","a<eos>"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[EncodeResponse](t, rec)
	assert.True(t, strings.HasPrefix(resp.ID, "enc_"))
	assert.Equal(t, "body", resp.Feature)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, []int64{2 + 'h', 2 + 'i'}, resp.Data[0].IDs)
	assert.Equal(t, []int64{2 + 'a', 1}, resp.Data[1].IDs)
	assert.Equal(t, 1, resp.Data[1].Index)
	assert.Nil(t, resp.Data[0].Bytes)
}

func TestEncodeRawMode(t *testing.T) {
	t.Parallel()
	e, _ := newTestEcho(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/features/title/encode", `{"input":"héllo"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[EncodeResponse](t, rec)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, []byte("héllo"), resp.Data[0].Bytes)
	assert.Nil(t, resp.Data[0].IDs)
}

func TestEncodeEmptyInputKeepsIDs(t *testing.T) {
	t.Parallel()
	e, _ := newTestEcho(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/features/body/encode", `{"input":""}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"ids":[]`)
	assert.NotContains(t, rec.Body.String(), `"bytes"`)

	rec = doJSON(t, e, http.MethodPost, "/v1/features/title/encode", `{"input":""}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"bytes":""`)
	assert.NotContains(t, rec.Body.String(), `"ids"`)
}

func TestEncodeConcurrentRequests(t *testing.T) {
	t.Parallel()
	e, _ := newTestEcho(t)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				req := httptest.NewRequest(http.MethodPost, "/v1/features/body/encode", strings.NewReader(`{"input":["hi","a<eos>"]}`))
				req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
				rec := httptest.NewRecorder()
				e.ServeHTTP(rec, req)
				if !assert.Equal(t, http.StatusOK, rec.Code) {
					return
				}
				var resp EncodeResponse
				if !assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)) {
					return
				}
				if assert.Len(t, resp.Data, 2) {
					assert.Equal(t, []int64{2 + 'h', 2 + 'i'}, resp.Data[0].IDs)
					assert.Equal(t, []int64{2 + 'a', 1}, resp.Data[1].IDs)
				}
			}
		}()
	}
	wg.Wait()
}

func TestEncodeBadRequests(t *testing.T) {
	t.Parallel()
	e, _ := newTestEcho(t)

	tests := []struct {
		name  string
		body  string
		param string
	}{
		{"malformed json", `{"input":`, ""},
		{"missing input", `{}`, "input"},
		{"wrong input type", `{"input":42}`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodPost, "/v1/features/body/encode", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			env := decodeBody[errorEnvelope](t, rec)
			assert.Equal(t, "invalid_request_error", env.Error.Type)
			assert.Equal(t, tc.param, env.Error.Param)
		})
	}

	big := `{"input":[` + strings.TrimSuffix(strings.Repeat(`"x",`, maxBatch+1), ",") + `]}`
	rec := doJSON(t, e, http.MethodPost, "/v1/features/body/encode", big)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecode(t *testing.T) {
	t.Parallel()
	e, _ := newTestEcho(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/features/body/decode", `{"ids":[106,107,0,1]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[DecodeResponse](t, rec)
	assert.Equal(t, "hi<eos>", resp.Text)
	assert.True(t, strings.HasPrefix(resp.ID, "dec_"))
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()
	e, _ := newTestEcho(t)

	tests := []struct {
		name string
		path string
		body string
		code string
	}{
		{"raw feature", "/v1/features/title/decode", `{"ids":[1]}`, "encoder_not_configured"},
		{"pending feature", "/v1/features/pending/decode", `{"ids":[1]}`, "encoder_not_configured"},
		{"out of range", "/v1/features/body/decode", `{"ids":[9999]}`, "token_out_of_range"},
		{"malformed", "/v1/features/body/decode", `{"ids":"x"}`, "invalid_request"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodPost, tc.path, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			env := decodeBody[errorEnvelope](t, rec)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	e, _ := newTestEcho(t)

	require.Equal(t, http.StatusOK, doJSON(t, e, http.MethodPost, "/v1/features/body/encode", `{"input":"abc"}`).Code)
	require.Equal(t, http.StatusBadRequest, doJSON(t, e, http.MethodPost, "/v1/features/title/decode", `{"ids":[1]}`).Code)

	rec := doJSON(t, e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `textfeat_requests_total{code="200",operation="encode"} 1`)
	assert.Contains(t, out, `textfeat_requests_total{code="400",operation="decode"} 1`)
	assert.Contains(t, out, `textfeat_tokens_total{direction="encode",feature="body"} 3`)
	assert.Contains(t, out, "go_goroutines")
}

func TestInputValue(t *testing.T) {
	t.Parallel()

	var v InputValue
	require.NoError(t, json.Unmarshal([]byte(`"one"`), &v))
	texts, ok := v.Texts()
	assert.True(t, ok)
	assert.Equal(t, []string{"one"}, texts)

	require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &v))
	texts, ok = v.Texts()
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, texts)

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(b))

	require.Error(t, json.Unmarshal([]byte(`{"x":1}`), &v))

	var empty InputValue
	_, ok = empty.Texts()
	assert.False(t, ok)
}
