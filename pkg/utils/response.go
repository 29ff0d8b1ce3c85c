package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success 操作结果追加status标记后整体序列化
func Success(c *gin.Context, data gin.H) {
	data["status"] = "success"
	c.JSON(http.StatusOK, data)
}

// PlainError 校验类短路响应,纯文本消息
func PlainError(c *gin.Context, httpStatus int, message string) {
	c.String(httpStatus, message)
}

// JSONError 传输类错误的JSON信封
// 只携带错误消息,堆栈只进日志不出响应
func JSONError(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{
		"status":  "error",
		"message": message,
	})
}
