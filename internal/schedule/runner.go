package schedule

// 批量签到：按顺序处理所有账号，账号之间随机等待，最后汇总推送一次

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"FloorSignin/internal/model"
	"FloorSignin/internal/service"
	"FloorSignin/pkg/errors"
	"FloorSignin/pkg/logger"
	"FloorSignin/pkg/metrics"
	"FloorSignin/pkg/notify"
	"FloorSignin/pkg/snowflake"
)

const (
	lockTTL     = 2 * time.Hour
	sendTimeout = 30 * time.Second
)

// AccountRunner 单账号签到，由 service.CheckInService 实现
type AccountRunner interface {
	Run(ctx context.Context, account model.Account) (*service.AccountReport, error)
}

// Locker 防止多个进程同时跑同一批账号，文件后端下为 nil
type Locker interface {
	TryLock(ctx context.Context, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context) error
}

type RunnerOptions struct {
	Accounts AccountRunner
	Notifier notify.Notifier
	// Pacer 账号之间的等待，最后一个账号之后不等待
	Pacer service.Pacer
	Lock  Locker
}

type Runner struct {
	accounts AccountRunner
	notifier notify.Notifier
	pacer    service.Pacer
	lock     Locker
	logger   *zap.Logger
	tracer   trace.Tracer
}

// RunResult 一轮批量签到的结果
type RunResult struct {
	RunID    string
	Reports  []*service.AccountReport
	Skipped  int // 因致命错误或取消而未处理的账号数
	Notified bool
}

// Text 各账号报告按顺序拼接
func (r *RunResult) Text() string {
	parts := make([]string, 0, len(r.Reports))
	for _, rep := range r.Reports {
		parts = append(parts, rep.String())
	}
	return strings.Join(parts, "\n")
}

func NewRunner(opts RunnerOptions) *Runner {
	if opts.Notifier == nil {
		opts.Notifier = notify.NoOp{}
	}
	if opts.Pacer == nil {
		opts.Pacer = service.NewRandomPacer(5*time.Second, 10*time.Second)
	}

	return &Runner{
		accounts: opts.Accounts,
		notifier: opts.Notifier,
		pacer:    opts.Pacer,
		lock:     opts.Lock,
		logger:   logger.Logger,
		tracer:   otel.Tracer("floor-signin/schedule"),
	}
}

// Run 处理全部账号
// 单个账号登录或资料失败只体现在报告里；本地存储错误或取消会跳过剩余账号并返回 error，
// 已完成部分的报告仍会推送
func (r *Runner) Run(ctx context.Context, accounts []model.Account) (*RunResult, error) {
	result := &RunResult{RunID: r.nextRunID()}
	log := r.logger.With(zap.String("run_id", result.RunID))

	if len(accounts) == 0 {
		log.Warn("No accounts configured, nothing to do")
		return result, nil
	}

	if r.lock != nil {
		ok, err := r.lock.TryLock(ctx, lockTTL)
		if err != nil {
			log.Error("Failed to acquire run lock", zap.Error(err))
			return result, err
		}
		if !ok {
			log.Info("Another sign-in run is in progress, skipping")
			return result, nil
		}
		defer func() {
			if err := r.lock.Unlock(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to release run lock", zap.Error(err))
			}
		}()
	}

	ctx, span := r.tracer.Start(ctx, "signin.run", trace.WithAttributes(
		attribute.String("run_id", result.RunID),
		attribute.Int("accounts", len(accounts)),
	))
	defer span.End()

	startTime := time.Now()
	log.Info("Starting sign-in run", zap.Int("accounts", len(accounts)))

	var runErr error
	for i, account := range accounts {
		log.Info("Processing account",
			zap.Int("index", i+1),
			zap.Int("total", len(accounts)),
			zap.String("account", account.Identifier),
		)

		report, err := r.accounts.Run(ctx, account)
		if report != nil {
			result.Reports = append(result.Reports, report)
		}
		if err != nil {
			if errors.IsPersistence(err) {
				log.Error("Local store failure, aborting run",
					zap.String("account", account.Identifier),
					zap.Error(err),
				)
			} else {
				log.Warn("Sign-in run interrupted",
					zap.String("account", account.Identifier),
					zap.Error(err),
				)
			}
			runErr = err
			result.Skipped = len(accounts) - i - 1
			break
		}

		if i == len(accounts)-1 {
			break
		}
		if err := r.pacer.Wait(ctx); err != nil {
			log.Warn("Sign-in run interrupted between accounts", zap.Error(err))
			runErr = err
			result.Skipped = len(accounts) - i - 1
			break
		}
	}

	log.Info("Sign-in run finished",
		zap.Int("reports", len(result.Reports)),
		zap.Int("skipped", result.Skipped),
		zap.Duration("duration", time.Since(startTime)),
	)

	r.notify(ctx, log, result)
	return result, runErr
}

// notify 推送失败只记录日志，不影响退出码
func (r *Runner) notify(ctx context.Context, log *zap.Logger, result *RunResult) {
	if len(result.Reports) == 0 {
		return
	}

	// 运行被取消时仍尽量把已完成的部分发出去
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	err := r.notifier.Send(sendCtx, result.Text())
	metrics.RecordNotify(sendCtx, r.notifier.Name(), err)
	if err != nil {
		log.Error("Failed to send sign-in report",
			zap.String("notifier", r.notifier.Name()),
			zap.Error(err),
		)
		return
	}
	result.Notified = true
	log.Info("Sign-in report sent", zap.String("notifier", r.notifier.Name()))
}

func (r *Runner) nextRunID() string {
	id, err := snowflake.NextRunID()
	if err != nil {
		r.logger.Warn("Snowflake not ready, using uuid run id", zap.Error(err))
		return uuid.NewString()
	}
	return id
}
