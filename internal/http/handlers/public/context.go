package public

import (
	handlershared "github.com/storelane/storelane/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "user_id", "用户标识无效", "用户标识类型异常")
}

// getOptionalUserID 读取可选登录态，游客请求返回 0。
func getOptionalUserID(c *gin.Context) uint {
	value, exists := c.Get("user_id")
	if !exists {
		return 0
	}
	if id, ok := value.(uint); ok {
		return id
	}
	return 0
}
