package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"FloorSignin/internal/cache"
	"FloorSignin/internal/model"
	"FloorSignin/pkg/floor"
	"FloorSignin/pkg/logger"
	"FloorSignin/pkg/metrics"
)

// State 单个账号签到流程所处阶段
type State int

const (
	StateInit State = iota
	StateAuthenticated
	StateProfileLoaded
	StateCheckingIn
	StateReported
	StateLoginFailed        // 终止：登录失败
	StateProfileUnavailable // 终止：用户信息获取失败
	StateStoreFailed        // 终止：本地存储不可用，整轮运行随之停止
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateAuthenticated:
		return "authenticated"
	case StateProfileLoaded:
		return "profile_loaded"
	case StateCheckingIn:
		return "checking_in"
	case StateReported:
		return "reported"
	case StateLoginFailed:
		return "login_failed"
	case StateProfileUnavailable:
		return "profile_unavailable"
	case StateStoreFailed:
		return "store_failed"
	default:
		return "unknown"
	}
}

type CheckInOptions struct {
	Devices  cache.DeviceStore
	Sessions cache.SessionStore
	Clients  floor.Factory
	Catalog  model.Catalog
	Pacer    Pacer
	// Validity 新令牌的本地有效期，默认 60 分钟
	Validity time.Duration
}

// CheckInService 单个账号的完整签到流程：建立身份 -> 获取资料 -> 逐版块签到 -> 汇总
type CheckInService struct {
	devices  cache.DeviceStore
	sessions cache.SessionStore
	clients  floor.Factory
	catalog  model.Catalog
	pacer    Pacer
	validity time.Duration
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewCheckInService(opts CheckInOptions) *CheckInService {
	if opts.Catalog == nil {
		opts.Catalog = model.DefaultCatalog
	}
	if opts.Validity <= 0 {
		opts.Validity = cache.DefaultSessionValidity
	}
	if opts.Pacer == nil {
		opts.Pacer = NewRandomPacer(time.Second, 3*time.Second)
	}

	return &CheckInService{
		devices:  opts.Devices,
		sessions: opts.Sessions,
		clients:  opts.Clients,
		catalog:  opts.Catalog,
		pacer:    opts.Pacer,
		validity: opts.Validity,
		logger:   logger.Logger,
		tracer:   otel.Tracer("floor-signin/service"),
	}
}

// Run 为一个账号执行签到
// 登录失败、资料不可用、单个版块失败都体现在报告中，不返回 error；
// 只有本地存储损坏或 ctx 取消才返回 error
func (s *CheckInService) Run(ctx context.Context, account model.Account) (report *AccountReport, err error) {
	attemptID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "signin.account", trace.WithAttributes(
		attribute.String("attempt_id", attemptID),
	))
	start := time.Now()
	defer func() {
		span.SetAttributes(
			attribute.String("state", report.State.String()),
			attribute.Int("exp_gained", report.TotalExp),
		)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		metrics.RecordAccount(ctx, report.State.String(), time.Since(start))
	}()

	report = &AccountReport{Account: account.Identifier, State: StateInit}
	log := s.logger.With(
		zap.String("account", account.Identifier),
		zap.String("attempt_id", attemptID),
	)

	fp, created, err := s.devices.GetOrCreate(ctx, account.Identifier)
	if err != nil {
		log.Error("Failed to resolve device fingerprint", zap.Error(err))
		report.storeFailed(err)
		return report, err
	}
	report.FingerprintCreated = created
	if created {
		log.Info("Using new device fingerprint", zap.String("device_code", fp.DeviceCode), zap.String("brand", string(fp.BrandTag)))
	} else {
		log.Info("Using saved device fingerprint", zap.String("device_code", fp.DeviceCode), zap.String("brand", string(fp.BrandTag)))
	}

	client := s.clients()

	auth, err := s.authenticate(ctx, log, client, account, fp, report)
	if err != nil {
		report.storeFailed(err)
		return report, err
	}
	if auth == nil {
		report.State = StateLoginFailed
		return report, nil
	}
	report.State = StateAuthenticated

	profile, err := client.Profile(ctx, *auth, fp)
	if err != nil {
		log.Error("Failed to fetch profile, skipping account", zap.Error(err))
		report.State = StateProfileUnavailable
		return report, nil
	}
	report.Profile = profile
	report.State = StateProfileLoaded

	log.Info("Signing in",
		zap.String("nickname", profile.Nickname),
		zap.Int("level", profile.Level),
		zap.Int("exp", profile.Exp),
		zap.Int("next_exp", profile.NextExp),
	)

	report.State = StateCheckingIn
	report.Planned = len(s.catalog)
	for _, cat := range s.catalog {
		outcome := s.checkInForum(ctx, log, client, *auth, fp, cat)
		report.add(outcome)
		metrics.RecordForum(ctx, outcome.Kind.String(), outcome.ExpGained)

		// 每个版块之后都随机等待，无论成功、失败还是已签到
		if err := s.pacer.Wait(ctx); err != nil {
			log.Warn("Sign-in interrupted", zap.Error(err))
			return report, err
		}
	}

	log.Info("Sign-in finished",
		zap.String("nickname", profile.Nickname),
		zap.Int("exp_gained", report.TotalExp),
		zap.Int("succeeded", report.count(model.OutcomeSucceeded)),
		zap.Int("already_done", report.count(model.OutcomeAlreadyDone)),
		zap.Int("failed", report.count(model.OutcomeFailed)+report.count(model.OutcomeCheckFailed)),
	)

	final, err := client.Profile(ctx, *auth, fp)
	if err != nil {
		log.Warn("Failed to fetch profile after sign-in", zap.Error(err))
	} else {
		report.Final = final
	}

	report.State = StateReported
	return report, nil
}

// authenticate 优先使用本地缓存令牌，未命中时登录并写回缓存
// 返回 nil, nil 表示登录失败
func (s *CheckInService) authenticate(
	ctx context.Context,
	log *zap.Logger,
	client floor.Client,
	account model.Account,
	fp *model.DeviceFingerprint,
	report *AccountReport,
) (*floor.Auth, error) {
	token, err := s.sessions.Load(ctx, account.Identifier)
	if err != nil {
		log.Error("Failed to read session cache", zap.Error(err))
		return nil, err
	}
	if token != nil {
		log.Info("Using cached session", zap.Time("expires_at", token.ExpiresAt))
		report.UsedCachedSession = true
		return &floor.Auth{Key: token.AuthKey, UserID: token.UserID}, nil
	}

	auth, err := client.Login(ctx, account.Identifier, account.Secret, fp)
	if err != nil {
		log.Error("Login failed, please check account or password", zap.Error(err))
		return nil, nil
	}

	if _, err := s.sessions.Save(ctx, account.Identifier, auth.Key, auth.UserID, s.validity); err != nil {
		// 令牌已拿到，本次仍可继续；下次运行会重新登录
		log.Error("Failed to save session cache", zap.Error(err))
		report.SessionSaveFailed = true
	}

	log.Info("Logged in", zap.String("user_id", auth.UserID))
	return auth, nil
}

// checkInForum 先查询签到状态，未签到时才签到，不做重试
func (s *CheckInService) checkInForum(
	ctx context.Context,
	log *zap.Logger,
	client floor.Client,
	auth floor.Auth,
	fp *model.DeviceFingerprint,
	cat model.Category,
) model.CheckInOutcome {
	outcome := model.CheckInOutcome{Category: cat}
	log = log.With(zap.String("cat_id", cat.ID), zap.String("cat_name", cat.Name))

	status, err := client.CheckStatus(ctx, auth, cat.ID, fp)
	if err != nil {
		log.Error("Sign-in status check failed", zap.Error(err))
		outcome.Kind = model.OutcomeCheckFailed
		return outcome
	}

	if status.SignedIn {
		log.Info("Already signed in today")
		outcome.Kind = model.OutcomeAlreadyDone
		return outcome
	}

	log.Info("Not signed in, signing in")
	res, err := client.SignIn(ctx, auth, cat.ID, fp)
	if err != nil {
		log.Error("Sign-in failed", zap.Error(err))
		outcome.Kind = model.OutcomeFailed
		return outcome
	}

	log.Info("Sign-in succeeded",
		zap.Int("exp", res.ExpGained),
		zap.Int("continuous_days", res.ContinuousDays),
	)
	outcome.Kind = model.OutcomeSucceeded
	outcome.ExpGained = res.ExpGained
	outcome.Continuous = res.ContinuousDays
	return outcome
}
