package logger

import (
	"fmt"
	"strings"
)

// 键名包含这些关键字时其值视为敏感信息
var sensitiveKeywords = []string{
	"token",
	"password",
	"passwd",
	"pwd",
	"secret",
	"api_key",
	"apikey",
	"api-key",
	"authorization",
	"auth",
}

// MaskToken 脱敏敏感字符串
// 规则:
//   - 空字符串返回空
//   - 长度<8: 返回 "***"
//   - 长度>=8: 保留前4后4,中间用星号替换
func MaskToken(token string) string {
	if token == "" {
		return ""
	}

	length := len(token)
	if length < 8 {
		return "***"
	}

	return token[:4] + strings.Repeat("*", length-8) + token[length-4:]
}

// IsSensitiveKey 判断键名是否属于敏感字段
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(keyLower, keyword) {
			return true
		}
	}
	return false
}

// SanitizeValue 根据键名判断值是否需要脱敏
func SanitizeValue(key string, value interface{}) interface{} {
	if !IsSensitiveKey(key) {
		return value
	}

	if strVal, ok := value.(string); ok {
		return MaskToken(strVal)
	}
	// 非字符串值统一返回掩码
	return "***MASKED***"
}

// SanitizeArgs 批量脱敏slog键值对参数
// 检查每个字符串key,敏感字段的value会被脱敏
func SanitizeArgs(args ...any) []any {
	if len(args) == 0 {
		return args
	}

	result := make([]any, len(args))
	for i := 0; i < len(args); i += 2 {
		result[i] = args[i]
		if i+1 >= len(args) {
			break
		}

		if key, ok := args[i].(string); ok {
			result[i+1] = SanitizeValue(key, args[i+1])
		} else {
			result[i+1] = args[i+1]
		}
	}

	return result
}

// SafeFormat 格式化字符串时把疑似凭据的参数先脱敏
// 长度达到8的字符串参数按token处理
func SafeFormat(format string, args ...interface{}) string {
	masked := make([]interface{}, len(args))
	for i, arg := range args {
		if strVal, ok := arg.(string); ok && len(strVal) >= 8 {
			masked[i] = MaskToken(strVal)
		} else {
			masked[i] = arg
		}
	}
	return fmt.Sprintf(format, masked...)
}
