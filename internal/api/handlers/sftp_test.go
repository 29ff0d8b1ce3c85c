package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/dfredborg/sftp-function/internal/infrastructure/config"
	"github.com/dfredborg/sftp-function/internal/infrastructure/sftp/sftptest"
	"github.com/dfredborg/sftp-function/pkg/logger"
)

func setupTest(t *testing.T) (*sftptest.Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server, err := sftptest.NewServer("testuser", "testpass", t.TempDir())
	require.NoError(t, err)
	require.NoError(t, server.Start())
	t.Cleanup(func() { server.Stop() })

	cfg := &config.Config{
		Sftp: config.SftpConfig{
			Host:              "127.0.0.1",
			Port:              server.Port(),
			Username:          "testuser",
			Password:          "testpass",
			DefaultPath:       ".",
			DefaultUploadPath: "upload.txt",
			DefaultContent:    "Hello from sftp-function",
			TimeoutSeconds:    30,
		},
	}

	router := gin.New()
	handler := NewSftpHandler(cfg, logger.New())
	router.GET("/api/v1/sftp", handler.Transfer)
	router.POST("/api/v1/sftp", handler.Transfer)
	return server, router
}

func doJSON(t *testing.T, router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
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

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestListFilesIsDefaultOperation(t *testing.T) {
	server, router := setupTest(t)
	require.NoError(t, os.WriteFile(filepath.Join(server.RootDir(), "report.csv"), []byte("a,b,c"), 0o600))

	w := doJSON(t, router, http.MethodGet, "/api/v1/sftp", "")
	require.Equal(t, http.StatusOK, w.Code)

	payload := decodeBody(t, w)
	require.Equal(t, "success", payload["status"])
	// path缺省时回显"."
	require.Equal(t, ".", payload["path"])

	files, ok := payload["files"].([]interface{})
	require.True(t, ok)
	require.Len(t, files, 1)

	entry := files[0].(map[string]interface{})
	require.Equal(t, "report.csv", entry["name"])
	require.EqualValues(t, 5, entry["size"])
	require.Equal(t, false, entry["is_dir"])
	require.NotEmpty(t, entry["modified"])
}

func TestListFilesWithExplicitPath(t *testing.T) {
	server, router := setupTest(t)
	require.NoError(t, os.MkdirAll(filepath.Join(server.RootDir(), "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(server.RootDir(), "sub", "inner.txt"), []byte("x"), 0o600))

	w := doJSON(t, router, http.MethodGet, "/api/v1/sftp?operation=listfiles&path=sub", "")
	require.Equal(t, http.StatusOK, w.Code)

	payload := decodeBody(t, w)
	require.Equal(t, "sub", payload["path"])
	files := payload["files"].([]interface{})
	require.Len(t, files, 1)
	require.Equal(t, "inner.txt", files[0].(map[string]interface{})["name"])
}

func TestOperationIsCaseInsensitive(t *testing.T) {
	_, router := setupTest(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/sftp?operation=ListFiles", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDownloadRequiresDownloadPath(t *testing.T) {
	server, router := setupTest(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/sftp?operation=download", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "downloadPath")
	// 校验短路发生在拨号之前
	require.Equal(t, 0, server.ConnCount())
}

func TestDownloadMissingFileReturnsNotFound(t *testing.T) {
	_, router := setupTest(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/sftp?operation=download&downloadPath=nope.txt", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "nope.txt")
}

func TestDownloadReturnsContent(t *testing.T) {
	server, router := setupTest(t)
	require.NoError(t, os.WriteFile(filepath.Join(server.RootDir(), "data.txt"), []byte("remote data"), 0o600))

	w := doJSON(t, router, http.MethodGet, "/api/v1/sftp?operation=download&downloadPath=data.txt", "")
	require.Equal(t, http.StatusOK, w.Code)

	payload := decodeBody(t, w)
	require.Equal(t, "success", payload["status"])
	require.Equal(t, "data.txt", payload["fileName"])
	require.Equal(t, "remote data", payload["content"])
	require.EqualValues(t, 11, payload["contentLength"])
}

func TestUploadWithDefaults(t *testing.T) {
	server, router := setupTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sftp", `{"operation":"upload","content":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)

	payload := decodeBody(t, w)
	require.Equal(t, "success", payload["status"])
	require.Equal(t, "upload.txt", payload["uploadedFile"])
	require.EqualValues(t, 5, payload["contentLength"])

	got, err := os.ReadFile(filepath.Join(server.RootDir(), "upload.txt"))
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}

// 显式传入的空content必须按空内容上传,不回退到配置默认值
func TestExplicitEmptyContentUploadsEmptyFile(t *testing.T) {
	server, router := setupTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sftp",
		`{"operation":"upload","uploadPath":"empty.txt","content":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 0, decodeBody(t, w)["contentLength"])

	got, err := os.ReadFile(filepath.Join(server.RootDir(), "empty.txt"))
	require.NoError(t, err)
	require.Equal(t, "", string(got))
}

// 显式传入的空downloadPath与缺省同样走400短路,不产生连接
func TestExplicitEmptyDownloadPathRejected(t *testing.T) {
	server, router := setupTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sftp",
		`{"operation":"download","downloadPath":""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "downloadPath")
	require.Equal(t, 0, server.ConnCount())
}

// query携带的空值同样算显式取值
func TestExplicitEmptyQueryValueWins(t *testing.T) {
	server, router := setupTest(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/sftp?operation=upload&uploadPath=blank.txt&content=", "")
	require.Equal(t, http.StatusOK, w.Code)

	got, err := os.ReadFile(filepath.Join(server.RootDir(), "blank.txt"))
	require.NoError(t, err)
	require.Equal(t, "", string(got))
}

func TestUnknownOperation(t *testing.T) {
	server, router := setupTest(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/sftp?operation=frobnicate", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "frobnicate")
	require.Equal(t, 0, server.ConnCount())
}

func TestBodyTakesPrecedenceOverQuery(t *testing.T) {
	server, router := setupTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sftp?operation=listfiles&content=fromquery",
		`{"operation":"upload","content":"frombody","uploadPath":"wins.txt"}`)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := os.ReadFile(filepath.Join(server.RootDir(), "wins.txt"))
	require.NoError(t, err)
	require.Equal(t, []byte("frombody"), got)
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	_, router := setupTest(t)

	const content = "round trip payload"
	w := doJSON(t, router, http.MethodPost, "/api/v1/sftp",
		`{"operation":"upload","uploadPath":"rt.txt","content":"`+content+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/sftp?operation=download&downloadPath=rt.txt", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, content, decodeBody(t, w)["content"])
}

// 上传和下载的contentLength统一为字节数
// 对多字节内容,字节数与字符数必然不同,这里把口径钉死
func TestContentLengthIsBytesForMultiByteContent(t *testing.T) {
	_, router := setupTest(t)

	const content = "héllo wörld"
	byteLen := len(content)
	runeLen := utf8.RuneCountInString(content)
	require.NotEqual(t, byteLen, runeLen)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sftp",
		`{"operation":"upload","uploadPath":"multi.txt","content":"`+content+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, byteLen, decodeBody(t, w)["contentLength"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/sftp?operation=download&downloadPath=multi.txt", "")
	require.Equal(t, http.StatusOK, w.Code)

	payload := decodeBody(t, w)
	require.Equal(t, content, payload["content"])
	require.EqualValues(t, byteLen, payload["contentLength"])
}

func TestWrongCredentialsReturnUnauthorized(t *testing.T) {
	_, router := setupTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sftp", `{"password":"wrong-password"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	payload := decodeBody(t, w)
	require.Equal(t, "error", payload["status"])
	require.NotContains(t, w.Body.String(), "wrong-password")
}

func TestMalformedPortFailsRequest(t *testing.T) {
	server, router := setupTest(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/sftp?port=not-a-number", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 0, server.ConnCount())
}

func TestMalformedJSONBodyFailsRequest(t *testing.T) {
	_, router := setupTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sftp", `{"operation":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
