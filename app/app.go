package app

import (
	"Gin_postgres_redis_workshop_tools/db"
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config Config
}

// Config 从环境变量读取
type Config struct {
	RedisAddr string
	RedisPwd  string
	WebOrigin string

	JWTSecret string
	TokenTTL  time.Duration

	// 调度器参数
	SchedulerInterval   time.Duration
	DueSoonHours        int
	AdminEscalationDays int

	BootstrapEmail string
}

func MustNew() *App {
	cfg := loadConfig()

	// --- DB: Postgres ---
	dbConn := db.ConnectDB()

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)
	a := &App{
		Router: r, DB: dbConn, RDB: rdb, Config: cfg,
	}
	return a
}

func (a *App) Close() { _ = a.RDB.Close() }

func loadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}
	getInt := func(k string, def int) int {
		if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
			return n
		}
		return def
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// token 有效期：天
	ttl := time.Duration(getInt("TOKEN_TTL_DAYS", 30)) * 24 * time.Hour

	return Config{
		RedisAddr: get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:  os.Getenv("REDIS_PASSWORD"),
		WebOrigin: get("WEB_ORIGIN", "http://localhost:5173"),

		JWTSecret: secret,
		TokenTTL:  ttl,

		SchedulerInterval:   time.Duration(getInt("SCHEDULER_INTERVAL_MINUTES", 10)) * time.Minute,
		DueSoonHours:        getInt("DUE_SOON_HOURS", 24),
		AdminEscalationDays: getInt("ADMIN_ESCALATION_DAYS", 2),

		BootstrapEmail: os.Getenv("BOOTSTRAP_EMAIL"),
	}
}
