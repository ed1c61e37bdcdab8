package main

import (
	"Gin_postgres_redis_workshop_tools/app"
	"Gin_postgres_redis_workshop_tools/config"
	"Gin_postgres_redis_workshop_tools/db"
	"Gin_postgres_redis_workshop_tools/routes"
	"Gin_postgres_redis_workshop_tools/scheduler"
	"context"
	"log"
	"os"
	"time"
)

func main() {
	config.LoadEnv()

	application := app.MustNew()
	defer application.Close()

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	routes.RegisterRoutes(r, application)

	repo := db.NewRepo(application.DB)

	// 首个管理员（只在 BOOTSTRAP_EMAIL 配了且没有管理员时生效）
	app.BootstrapFirstAdmin(context.Background(), application.Config, repo)

	// 到期提醒调度器
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched := scheduler.New(repo, application.RDB, scheduler.Config{
		Interval:        application.Config.SchedulerInterval,
		DueSoonWindow:   time.Duration(application.Config.DueSoonHours) * time.Hour,
		EscalationAfter: time.Duration(application.Config.AdminEscalationDays) * 24 * time.Hour,
	})
	sched.Start(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Printf("listening on :%s", port)
	_ = r.Run(":" + port)
}
