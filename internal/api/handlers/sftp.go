package handlers

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dfredborg/sftp-function/internal/infrastructure/config"
	"github.com/dfredborg/sftp-function/internal/infrastructure/ratelimit"
	sftpclient "github.com/dfredborg/sftp-function/internal/infrastructure/sftp"
	apperrors "github.com/dfredborg/sftp-function/internal/shared/errors"
	"github.com/dfredborg/sftp-function/pkg/utils"
)

const (
	opListFiles = "listfiles"
	opUpload    = "upload"
	opDownload  = "download"
)

// Logger 处理器需要的日志能力,按构造参数注入
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// transferParams body和query共用的绑定结构
// 所有字段用指针区分"未携带"和显式取值,显式空值不回退到默认值
// 非法端口直接使绑定失败
type transferParams struct {
	Host         *string `form:"host" json:"host"`
	Port         *int    `form:"port" json:"port"`
	Username     *string `form:"username" json:"username"`
	Password     *string `form:"password" json:"password"`
	Operation    *string `form:"operation" json:"operation"`
	Path         *string `form:"path" json:"path"`
	UploadPath   *string `form:"uploadPath" json:"uploadPath"`
	Content      *string `form:"content" json:"content"`
	DownloadPath *string `form:"downloadPath" json:"downloadPath"`
}

// TransferRequest 解析完成的请求参数
// 每个字段已按 body > query > 配置默认值 的优先级归并
type TransferRequest struct {
	Host         string
	Port         int
	Username     string
	Password     string
	Operation    string
	Path         string
	UploadPath   string
	Content      string
	DownloadPath string
}

// SftpHandler 单请求单连接的SFTP代理处理器
type SftpHandler struct {
	cfg     *config.Config
	log     Logger
	limiter *ratelimit.Limiter
}

func NewSftpHandler(cfg *config.Config, log Logger) *SftpHandler {
	return &SftpHandler{
		cfg:     cfg,
		log:     log,
		limiter: ratelimit.NewLimiter(cfg.Sftp.QPS),
	}
}

// Transfer 执行一次SFTP操作
// @Summary 执行SFTP操作
// @Description 按operation选择器代理listfiles/upload/download三种操作。连接参数优先取JSON body,其次query,最后取配置默认值
// @Tags SFTP
// @Accept json
// @Produce json
// @Param operation query string false "操作选择器: listfiles / upload / download" default(listfiles)
// @Param host query string false "SFTP服务器地址"
// @Param port query int false "SFTP端口" default(22)
// @Param username query string false "用户名"
// @Param password query string false "密码"
// @Param path query string false "listfiles的目录路径" default(.)
// @Param uploadPath query string false "upload的远端路径"
// @Param content query string false "upload的文件内容"
// @Param downloadPath query string false "download的远端路径(必填)"
// @Success 200 {object} map[string]interface{} "操作结果"
// @Failure 400 {string} string "参数缺失或operation不可识别"
// @Failure 404 {string} string "下载目标不存在"
// @Failure 500 {object} map[string]interface{} "连接或传输失败"
// @Router /sftp [post]
func (h *SftpHandler) Transfer(c *gin.Context) {
	req, serr := h.resolveRequest(c)
	if serr != nil {
		h.respondError(c, serr)
		return
	}

	op := strings.ToLower(req.Operation)
	// 校验短路在拨号之前,不产生任何连接副作用
	switch op {
	case opListFiles, opUpload:
	case opDownload:
		if req.DownloadPath == "" {
			utils.PlainError(c, http.StatusBadRequest, "downloadPath is required for download operation")
			return
		}
	default:
		utils.PlainError(c, http.StatusBadRequest, "unknown operation: "+req.Operation)
		return
	}

	if err := h.limiter.Wait(c.Request.Context()); err != nil {
		h.respondError(c, apperrors.NewServiceErrorWithCause(apperrors.ErrorCodeRateLimit, "connection rate limit exceeded", err))
		return
	}

	h.log.Debug("connecting to sftp server",
		"host", req.Host, "port", req.Port, "username", req.Username, "operation", op)

	client, err := sftpclient.Connect(sftpclient.ConnConfig{
		Host:     req.Host,
		Port:     req.Port,
		Username: req.Username,
		Password: req.Password,
		Timeout:  h.cfg.Sftp.Timeout(),
	})
	if err != nil {
		h.respondError(c, classifyConnectError(err))
		return
	}

	var result gin.H
	var opErr error
	switch op {
	case opListFiles:
		result, opErr = h.listFiles(client, req)
	case opUpload:
		result, opErr = h.upload(client, req)
	case opDownload:
		result, opErr = h.download(client, req)
	}

	// 会话在构造响应之前释放,成功与否都只有这一处关闭点
	if err := client.Close(); err != nil {
		h.log.Warn("failed to close sftp session", "host", req.Host, "error", err.Error())
	}

	if opErr != nil {
		h.respondError(c, opErr)
		return
	}
	utils.Success(c, result)
}

// resolveRequest 归并body、query和配置默认值
func (h *SftpHandler) resolveRequest(c *gin.Context) (TransferRequest, *apperrors.ServiceError) {
	var query transferParams
	if err := c.ShouldBindQuery(&query); err != nil {
		return TransferRequest{}, apperrors.NewServiceErrorWithCause(
			apperrors.ErrorCodeInvalidRequest, "invalid query parameters: "+err.Error(), err)
	}

	var body transferParams
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			return TransferRequest{}, apperrors.NewServiceErrorWithCause(
				apperrors.ErrorCodeInvalidRequest, "invalid JSON body: "+err.Error(), err)
		}
	}

	defaults := h.cfg.Sftp
	port := defaults.Port
	if body.Port != nil {
		port = *body.Port
	} else if query.Port != nil {
		port = *query.Port
	}

	return TransferRequest{
		Host:         pickString(body.Host, query.Host, defaults.Host),
		Port:         port,
		Username:     pickString(body.Username, query.Username, defaults.Username),
		Password:     pickString(body.Password, query.Password, defaults.Password),
		Operation:    pickString(body.Operation, query.Operation, opListFiles),
		Path:         pickString(body.Path, query.Path, defaults.DefaultPath),
		UploadPath:   pickString(body.UploadPath, query.UploadPath, defaults.DefaultUploadPath),
		Content:      pickString(body.Content, query.Content, defaults.DefaultContent),
		DownloadPath: pickString(body.DownloadPath, query.DownloadPath, ""),
	}, nil
}

func (h *SftpHandler) listFiles(client *sftpclient.Client, req TransferRequest) (gin.H, error) {
	entries, err := client.ListDirectory(req.Path)
	if err != nil {
		return nil, apperrors.NewServiceErrorWithCause(
			apperrors.ErrorCodeInternalError, "failed to list directory: "+err.Error(), err)
	}

	h.log.Info("listed remote directory", "host", req.Host, "path", req.Path, "entries", len(entries))
	return gin.H{
		"files": entries,
		"path":  req.Path,
	}, nil
}

func (h *SftpHandler) upload(client *sftpclient.Client, req TransferRequest) (gin.H, error) {
	content := []byte(req.Content)
	if err := client.Upload(content, req.UploadPath); err != nil {
		return nil, apperrors.NewServiceErrorWithCause(
			apperrors.ErrorCodeInternalError, "failed to upload file: "+err.Error(), err)
	}

	h.log.Info("uploaded remote file", "host", req.Host, "path", req.UploadPath, "bytes", len(content))
	return gin.H{
		"uploadedFile":  req.UploadPath,
		"contentLength": len(content),
	}, nil
}

func (h *SftpHandler) download(client *sftpclient.Client, req TransferRequest) (gin.H, error) {
	exists, err := client.Exists(req.DownloadPath)
	if err != nil {
		return nil, apperrors.NewServiceErrorWithCause(
			apperrors.ErrorCodeInternalError, "failed to check remote path: "+err.Error(), err)
	}
	if !exists {
		return nil, apperrors.NewServiceError(
			apperrors.ErrorCodeNotFound, "remote file not found: "+req.DownloadPath)
	}

	data, err := client.Download(req.DownloadPath)
	if err != nil {
		return nil, apperrors.NewServiceErrorWithCause(
			apperrors.ErrorCodeInternalError, "failed to download file: "+err.Error(), err)
	}

	h.log.Info("downloaded remote file", "host", req.Host, "path", req.DownloadPath, "bytes", len(data))
	// contentLength统一报告字节数,与upload口径一致
	return gin.H{
		"fileName":      path.Base(req.DownloadPath),
		"content":       string(data),
		"contentLength": len(data),
	}, nil
}

// respondError 按错误标签落到对应响应层
// 校验和not-found走纯文本短路,其余走JSON信封;原始错误只进日志
func (h *SftpHandler) respondError(c *gin.Context, err error) {
	var serr *apperrors.ServiceError
	if !errors.As(err, &serr) {
		serr = apperrors.NewServiceErrorWithCause(apperrors.ErrorCodeInternalError, err.Error(), err)
	}

	h.log.Error("sftp request failed", "code", string(serr.Code), "error", serr.Message)

	switch serr.Code {
	case apperrors.ErrorCodeInvalidRequest, apperrors.ErrorCodeNotFound:
		utils.PlainError(c, serr.HTTPStatus(), serr.Message)
	default:
		utils.JSONError(c, serr.HTTPStatus(), serr.Message)
	}
}

func classifyConnectError(err error) *apperrors.ServiceError {
	switch {
	case sftpclient.IsAuthError(err):
		return apperrors.NewServiceErrorWithCause(apperrors.ErrorCodeUnauthorized, "sftp authentication failed", err)
	case sftpclient.IsTimeoutError(err):
		return apperrors.NewServiceErrorWithCause(apperrors.ErrorCodeTimeout, "sftp connection timed out", err)
	default:
		return apperrors.NewServiceErrorWithCause(apperrors.ErrorCodeInternalError, "failed to connect: "+err.Error(), err)
	}
}

// pickString 按 body > query > 默认值 取第一个被携带的取值
// 显式传入的空字符串同样算携带,不会回退
func pickString(body, query *string, fallback string) string {
	if body != nil {
		return *body
	}
	if query != nil {
		return *query
	}
	return fallback
}
