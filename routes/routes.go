package routes

import (
	"Gin_postgres_redis_workshop_tools/app"
	"Gin_postgres_redis_workshop_tools/controllers"
	"time"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	uc := controllers.GetUserController(s)
	toolCtl := controllers.NewToolController(s)
	loanCtl := controllers.NewLoanController(s)
	notifCtl := controllers.NewNotificationController(s)
	reportCtl := controllers.NewReportController(s)

	// 复用的中间件
	authMW := app.AuthRequired(s.Repo, a.Config)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)

	// ------------------------------
	// 用户 / 登录
	// ------------------------------
	users := r.Group("/api/users")
	{
		// 公开：登录、激活
		users.POST("/login", uc.Login)
		users.POST("/activate", uc.Activate)
	}
	usersAuth := users.Group("", authMW, seenMW)
	{
		usersAuth.GET("/profile", uc.Profile)
		usersAuth.GET("/technicians", uc.ListTechnicians)
	}
	usersAdmin := users.Group("", authMW, adminMW)
	{
		usersAdmin.GET("", uc.ListUsers)
		usersAdmin.POST("/register", uc.Register)
		usersAdmin.PATCH("/:id/active", uc.SetActive)
	}

	// ------------------------------
	// 工具
	// ------------------------------
	tools := r.Group("/api/tools", authMW, seenMW)
	{
		tools.GET("", toolCtl.ListTools) // ?category=&status=&status=
		tools.GET("/:id", toolCtl.GetTool)
	}
	toolsAdmin := r.Group("/api/tools", authMW, adminMW)
	{
		toolsAdmin.POST("", toolCtl.CreateTool)
		toolsAdmin.PUT("/:id", toolCtl.UpdateTool)
		toolsAdmin.DELETE("/:id", toolCtl.DeleteTool)
		toolsAdmin.PATCH("/:id/status", toolCtl.UpdateToolStatus)
	}

	// ------------------------------
	// 借还 / 转借
	// ------------------------------
	loans := r.Group("/api/loans", authMW, seenMW)
	{
		loans.GET("", loanCtl.ListLoans) // ?status=&toolId=&technicianId=(admin)
		loans.POST("", loanCtl.CreateLoan)
		loans.GET("/my-tools", loanCtl.MyLoans)
		loans.GET("/:id", loanCtl.GetLoan)
		loans.PUT("/:id/return", loanCtl.Return)
		loans.POST("/:id/transfer", loanCtl.Transfer)
	}

	// ------------------------------
	// 通知
	// ------------------------------
	notifs := r.Group("/api/notifications", authMW, seenMW)
	{
		notifs.GET("", notifCtl.MyNotifications)
		notifs.GET("/unread-count", notifCtl.UnreadCount)
		notifs.PUT("/:id/read", notifCtl.MarkRead)
		notifs.DELETE("/:id", notifCtl.Delete)
	}

	// ------------------------------
	// 报表（仅管理员）
	// ------------------------------
	reports := r.Group("/api/reports", authMW, adminMW)
	{
		reports.GET("/late-returns-by-technician", reportCtl.LateReturns)
		reports.GET("/damaged-returns-by-technician", reportCtl.DamagedReturns)
	}
}
