// scheduler 周期扫描 active 借用并产出到期提醒。
// 每轮 tick 独立评估：due-soon / overdue / admin 升级，各自由借用上的
// 标记位去重，标记只翻 true（转借时由生命周期侧整组清零）。
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"Gin_postgres_redis_workshop_tools/db"
	"Gin_postgres_redis_workshop_tools/models"

	"github.com/redis/go-redis/v9"
)

type Clock func() time.Time

type Config struct {
	Interval        time.Duration // tick 间隔
	DueSoonWindow   time.Duration // 到期前多久提醒技师，默认 24h
	EscalationAfter time.Duration // 逾期多久升级到管理员，默认 2 天
}

func DefaultConfig() Config {
	return Config{
		Interval:        10 * time.Minute,
		DueSoonWindow:   24 * time.Hour,
		EscalationAfter: 2 * 24 * time.Hour,
	}
}

type Scheduler struct {
	repo *db.Repo
	rdb  *redis.Client // 可以为 nil（测试或单机不开 redis）
	cfg  Config
	now  Clock
}

func New(repo *db.Repo, rdb *redis.Client, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.DueSoonWindow <= 0 {
		cfg.DueSoonWindow = DefaultConfig().DueSoonWindow
	}
	if cfg.EscalationAfter <= 0 {
		cfg.EscalationAfter = DefaultConfig().EscalationAfter
	}
	return &Scheduler{repo: repo, rdb: rdb, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock 测试用：固定时间源
func (s *Scheduler) WithClock(now Clock) *Scheduler {
	s.now = now
	return s
}

// Start 启动后台循环，ctx 取消即停。
// 同一进程内 tick 串行执行，上一轮没跑完不会开下一轮。
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		t := time.NewTicker(s.cfg.Interval)
		defer t.Stop()
		log.Printf("[scheduler] started, interval=%s dueSoon=%s escalation=%s",
			s.cfg.Interval, s.cfg.DueSoonWindow, s.cfg.EscalationAfter)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[scheduler] stopped")
				return
			case <-t.C:
				s.runSafe(ctx)
			}
		}
	}()
}

// runSafe tick 挂了只记日志，下一轮照常
func (s *Scheduler) runSafe(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[scheduler] tick panicked: %v", r)
		}
	}()
	if !s.acquireTickLock(ctx) {
		log.Printf("[scheduler] previous tick still holds the lock, skipping")
		return
	}
	defer s.releaseTickLock(ctx)
	if err := s.RunCheck(ctx); err != nil {
		log.Printf("[scheduler] tick failed: %v", err)
	}
}

const tickLockKey = "scheduler:tick:lock"

// redis 占位锁：另一个进程误起时跳过本轮而不是双发。
// 只是兜底，不做分布式协调。
func (s *Scheduler) acquireTickLock(ctx context.Context) bool {
	if s.rdb == nil {
		return true
	}
	ok, err := s.rdb.SetNX(ctx, tickLockKey, "1", s.cfg.Interval).Result()
	if err != nil {
		// redis 不可用不挡 tick
		return true
	}
	return ok
}

func (s *Scheduler) releaseTickLock(ctx context.Context) {
	if s.rdb != nil {
		_ = s.rdb.Del(ctx, tickLockKey).Err()
	}
}

// loanActions 每轮对单条借用的判定结果。
// 判定表（overdue × 标记位），三项彼此独立，可同轮齐发。
type loanActions struct {
	dueSoon  bool
	overdue  bool
	escalate bool
}

func evaluate(l *models.Loan, now time.Time, cfg Config) loanActions {
	pastDue := l.ExpectedReturn.Before(now)
	return loanActions{
		// 已经 overdue 就不再发 due-soon
		dueSoon: !pastDue && !l.DueSoonNotified &&
			!l.ExpectedReturn.After(now.Add(cfg.DueSoonWindow)),
		overdue:  pastDue && !l.OverdueNotified,
		escalate: pastDue && !l.AdminNotified &&
			l.ExpectedReturn.Before(now.Add(-cfg.EscalationAfter)),
	}
}

// RunCheck 执行一轮检查。单条借用出错不影响其余借用。
func (s *Scheduler) RunCheck(ctx context.Context) error {
	now := s.now()
	loans, err := s.repo.ListActiveLoans(ctx)
	if err != nil {
		return fmt.Errorf("list active loans: %w", err)
	}

	// 管理员名单整轮只取一次
	admins, err := s.repo.ListActiveAdmins(ctx)
	if err != nil {
		// 没有管理员名单照样跑技师侧通知
		log.Printf("[scheduler] list admins failed: %v", err)
		admins = nil
	}

	log.Printf("[scheduler] checking %d active loan(s), %d admin(s)", len(loans), len(admins))

	for i := range loans {
		s.processLoan(ctx, &loans[i], now, admins)
	}
	return nil
}

func (s *Scheduler) processLoan(ctx context.Context, l *models.Loan, now time.Time, admins []models.User) {
	// 悬空引用整条跳过，下一轮重试
	tool, err := s.repo.FindToolByID(ctx, l.ToolID)
	if err != nil {
		log.Printf("[scheduler] loan %s: tool %s not loadable, skipping: %v", l.ID, l.ToolID, err)
		return
	}
	tech, err := s.repo.FindUserByID(ctx, l.TechnicianID)
	if err != nil {
		log.Printf("[scheduler] loan %s: technician %s not loadable, skipping: %v", l.ID, l.TechnicianID, err)
		return
	}

	act := evaluate(l, now, s.cfg)

	if act.overdue {
		msg := fmt.Sprintf("ALERT: The tool %q is overdue (was due on %s). Please return it promptly.",
			tool.Name, l.ExpectedReturn.Format("2006-01-02 15:04"))
		if err := s.notify(ctx, tech.ID, msg, models.SeverityError, l.ID); err != nil {
			log.Printf("[scheduler] loan %s: overdue notification failed: %v", l.ID, err)
		} else if err := s.repo.MarkOverdueNotified(ctx, l.ID); err != nil {
			log.Printf("[scheduler] loan %s: mark overdue failed: %v", l.ID, err)
		}
	}

	if act.dueSoon {
		msg := fmt.Sprintf("REMINDER: The tool %q is due on %s.",
			tool.Name, l.ExpectedReturn.Format("2006-01-02 15:04"))
		if err := s.notify(ctx, tech.ID, msg, models.SeverityInfo, l.ID); err != nil {
			log.Printf("[scheduler] loan %s: due-soon notification failed: %v", l.ID, err)
		} else if err := s.repo.MarkDueSoonNotified(ctx, l.ID); err != nil {
			log.Printf("[scheduler] loan %s: mark due-soon failed: %v", l.ID, err)
		}
	}

	if act.escalate && len(admins) > 0 {
		s.escalate(ctx, l, tool, tech, admins)
	}
}

// escalate 给所有在职管理员并发发一遍，逐个收集错误。
// 全部尝试过之后才翻 adminNotified —— 标记防的是重发，不保证送达。
func (s *Scheduler) escalate(ctx context.Context, l *models.Loan, tool *models.Tool, tech *models.User, admins []models.User) {
	msg := fmt.Sprintf("ESCALATION: Loan for %q to technician %q is overdue by %d+ days (due %s).",
		tool.Name, tech.Name, int(s.cfg.EscalationAfter.Hours()/24),
		l.ExpectedReturn.Format("2006-01-02"))

	var wg sync.WaitGroup
	errs := make([]error, len(admins))
	for i := range admins {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.notify(ctx, admins[i].ID, msg, models.SeverityWarning, l.ID)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			log.Printf("[scheduler] loan %s: escalation to admin %s failed: %v", l.ID, admins[i].ID, err)
		}
	}
	if err := s.repo.MarkAdminNotified(ctx, l.ID); err != nil {
		log.Printf("[scheduler] loan %s: mark admin-notified failed: %v", l.ID, err)
	}
}

func (s *Scheduler) notify(ctx context.Context, recipientID, msg, severity, loanID string) error {
	id := loanID
	return s.repo.CreateNotification(ctx, &models.Notification{
		RecipientID: recipientID,
		Message:     msg,
		Severity:    severity,
		RelatedKind: models.RelatedLoan,
		RelatedID:   &id,
	})
}
