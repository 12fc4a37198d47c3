package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := Config{ChunkSize: 1000, MaxItems: 50000, Marker: "uhf", MaxUploadMB: 10}
	app := fiber.New(fiber.Config{BodyLimit: cfg.BodyLimit()})
	svc := NewService(cfg, NewIndex(), nil, nil, "", &capturePub{}, zap.NewNop())
	NewHandler(svc).RegisterRoutes(app)
	return app
}

func multipartUpload(t *testing.T, fileName string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/inventory/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHandleUpload(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(multipartUpload(t, "assets.csv", []byte(sampleCSV)))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(3), body["totalItems"])
}

func TestHandleUpload_Errors(t *testing.T) {
	app := setupTestApp(t)

	t.Run("missing file part", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/inventory/upload", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("unsupported format", func(t *testing.T) {
		resp, err := app.Test(multipartUpload(t, "assets.txt", []byte("x")))
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestHandleUpload_AcceptsFilesOverFiberDefaultBodyLimit(t *testing.T) {
	app := setupTestApp(t)

	// build a ~5MB CSV: over fiber's default 4MB body limit, under the
	// configured 10MB upload cap
	var sheet bytes.Buffer
	sheet.WriteString("id,uhf,desc\n")
	pad := strings.Repeat("x", 100)
	for i := 0; i < 45000; i++ {
		fmt.Fprintf(&sheet, "%d,E280%06d,%s\n", i+1, i, pad)
	}
	require.Greater(t, sheet.Len(), 4<<20)

	resp, err := app.Test(multipartUpload(t, "big.csv", sheet.Bytes()), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestHandleDataAndSearch(t *testing.T) {
	app := setupTestApp(t)
	resp, err := app.Test(multipartUpload(t, "assets.csv", []byte(sampleCSV)))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	t.Run("data returns flattened items", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/inventory/data", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var body struct {
			Items []map[string]any `json:"items"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Items, 3)
		assert.Equal(t, "E280A001", body.Items[0]["uhf"])
		assert.Equal(t, float64(1), body.Items[0]["id"])
		assert.Equal(t, float64(2), body.Items[0]["row"])
	})

	t.Run("search with column filter", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/inventory/search?q=desk&columns=desc", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, float64(1), body["count"])
	})
}

func TestHandleClearAndStatus(t *testing.T) {
	app := setupTestApp(t)
	resp, err := app.Test(multipartUpload(t, "assets.csv", []byte(sampleCSV)))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/inventory/clear", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/inventory/status", nil))
	require.NoError(t, err)
	var status map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, false, status["loaded"])
}
