// controllers/notification_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"Gin_postgres_redis_workshop_tools/app"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NotificationController struct{ *Srv }

func NewNotificationController(s *Srv) *NotificationController {
	return &NotificationController{Srv: s}
}

// 未读数缓存 TTL，标记已读/删除时主动失效
const unreadCacheTTL = 30 * time.Second

func unreadCacheKey(uid string) string { return "notif:unread:" + uid }

func (nc *NotificationController) MyNotifications(c *gin.Context) {
	ns, err := nc.Repo.ListNotifications(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"notifications": ns})
}

func (nc *NotificationController) UnreadCount(c *gin.Context) {
	uid := currentUserID(c)

	// 先查 redis，miss 再落库
	if v, err := nc.RDB.Get(c.Request.Context(), unreadCacheKey(uid)).Result(); err == nil {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.JSON(http.StatusOK, app.H{"count": n})
			return
		}
	}

	n, err := nc.Repo.CountUnreadNotifications(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	_ = nc.RDB.Set(c.Request.Context(), unreadCacheKey(uid), strconv.FormatInt(n, 10), unreadCacheTTL).Err()
	c.JSON(http.StatusOK, app.H{"count": n})
}

func (nc *NotificationController) MarkRead(c *gin.Context) {
	uid := currentUserID(c)
	n, err := nc.Repo.MarkNotificationRead(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	_ = nc.RDB.Del(c.Request.Context(), unreadCacheKey(uid)).Err()
	c.JSON(http.StatusOK, app.H{"notification": n})
}

func (nc *NotificationController) Delete(c *gin.Context) {
	uid := currentUserID(c)
	if err := nc.Repo.DeleteNotification(c.Request.Context(), c.Param("id"), uid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	_ = nc.RDB.Del(c.Request.Context(), unreadCacheKey(uid)).Err()
	c.JSON(http.StatusOK, app.H{"ok": true})
}
