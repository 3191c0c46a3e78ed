package floor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"FloorSignin/internal/model"
	"FloorSignin/pkg/errors"
	"FloorSignin/pkg/logger"
	"FloorSignin/pkg/metrics"
	"FloorSignin/utils"
)

const (
	DefaultBaseURL = "https://floor.huluxia.com"

	Platform    = "1" // IOS 平台
	AppVersion  = "1.2.2"
	MarketID    = "floor_huluxia"
	DeviceModel = "iPhone14,3"

	loginPath   = "/account/login/IOS/1.0"
	profilePath = "/user/info/IOS/1.0"
	checkPath   = "/user/signin/check/IOS/1.0"
	signInPath  = "/user/signin/IOS/1.1"

	statusOK = 1
)

// Headers 模拟固定版本的 iOS 客户端，远端据此判断请求来源，必须原样发送
var Headers = map[string]string{
	"Host":            "floor.huluxia.com",
	"Accept":          "*/*",
	"Accept-Language": "zh-Hans-CN;q=1, en-GB;q=0.9, zh-Hant-CN;q=0.8",
	"Content-Type":    "application/x-www-form-urlencoded",
	"Accept-Encoding": "gzip, deflate, br",
	"User-Agent":      "Floor/1.2.2 (iPhone; iOS 18.2; Scale/3.00)",
	"Connection":      "keep-alive",
}

// Auth 登录后用于后续请求的凭证
type Auth struct {
	Key    string
	UserID string
}

type CheckResult struct {
	SignedIn bool
}

type SignInResult struct {
	ExpGained      int
	ContinuousDays int
}

// Client 远端接口，所有失败都以 error 返回，调用方决定跳过或终止
type Client interface {
	Login(ctx context.Context, account, secret string, fp *model.DeviceFingerprint) (*Auth, error)
	Profile(ctx context.Context, auth Auth, fp *model.DeviceFingerprint) (*model.Profile, error)
	CheckStatus(ctx context.Context, auth Auth, catID string, fp *model.DeviceFingerprint) (*CheckResult, error)
	SignIn(ctx context.Context, auth Auth, catID string, fp *model.DeviceFingerprint) (*SignInResult, error)
}

// Factory 每个账号创建一个新会话，cookie 与连接在该账号内复用
type Factory func() Client

type Options struct {
	BaseURL string
	Timeout time.Duration
}

// RestyClient 基于 resty 的实现，内部持有独立的 cookie jar
type RestyClient struct {
	http *resty.Client
}

func NewClient(opts Options) *RestyClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetTransport(&decodingTransport{base: http.DefaultTransport.(*http.Transport).Clone()}).
		SetHeaders(Headers)

	return &RestyClient{http: client}
}

// NewFactory 返回按账号创建会话的工厂
func NewFactory(opts Options) Factory {
	return func() Client {
		return NewClient(opts)
	}
}

type loginResponse struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Key    string `json:"_key"`
	User   *struct {
		UserID model.FlexString `json:"userID"`
	} `json:"user"`
}

func (c *RestyClient) Login(ctx context.Context, account, secret string, fp *model.DeviceFingerprint) (*Auth, error) {
	form := map[string]string{
		"access_token": "",
		"app_version":  AppVersion,
		"code":         "",
		"device_code":  fp.DeviceCode,
		"device_model": DeviceModel,
		"email":        account,
		"market_id":    MarketID,
		"openid":       "",
		"password":     utils.MD5Hex(secret),
		"phone":        "",
		"platform":     Platform,
	}

	var out loginResponse
	if err := c.post(ctx, "login", loginPath, form, &out); err != nil {
		return nil, err
	}
	if out.Status != statusOK {
		return nil, c.rejected("login", out.Status, out.Msg)
	}
	if out.Key == "" || out.User == nil || out.User.UserID == "" {
		return nil, c.malformed("login", "missing _key or user.userID")
	}

	return &Auth{Key: out.Key, UserID: string(out.User.UserID)}, nil
}

type profileResponse struct {
	Status  *int   `json:"status"`
	Msg     string `json:"msg"`
	Nick    string `json:"nick"`
	Level   int    `json:"level"`
	Exp     int    `json:"exp"`
	NextExp int    `json:"nextExp"`
}

func (c *RestyClient) Profile(ctx context.Context, auth Auth, fp *model.DeviceFingerprint) (*model.Profile, error) {
	// 与官方客户端一致，device_code 中的 %5B/%5D 原样拼入查询串
	query := fmt.Sprintf("app_version=%s&market_id=%s&platform=%s&_key=%s&device_code=%s&user_id=%s",
		AppVersion, MarketID, Platform, auth.Key, fp.DeviceCode, auth.UserID)

	req := c.http.R().SetContext(ctx).SetQueryString(query)
	resp, err := req.Get(profilePath)

	var out profileResponse
	if err := c.decode(ctx, "profile", resp, err, &out); err != nil {
		return nil, err
	}
	if out.Status != nil && *out.Status != statusOK {
		return nil, c.rejected("profile", *out.Status, out.Msg)
	}
	if out.Nick == "" {
		return nil, c.malformed("profile", "missing nick")
	}

	return &model.Profile{
		Nickname: out.Nick,
		Level:    out.Level,
		Exp:      out.Exp,
		NextExp:  out.NextExp,
	}, nil
}

type checkResponse struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	SignIn int    `json:"signin"`
}

func (c *RestyClient) CheckStatus(ctx context.Context, auth Auth, catID string, fp *model.DeviceFingerprint) (*CheckResult, error) {
	var out checkResponse
	if err := c.post(ctx, "check", checkPath, signInForm(auth, catID, fp), &out); err != nil {
		return nil, err
	}
	if out.Status != statusOK {
		return nil, c.rejected("check", out.Status, out.Msg)
	}

	return &CheckResult{SignedIn: out.SignIn != 0}, nil
}

type signInResponse struct {
	Status        int    `json:"status"`
	Msg           string `json:"msg"`
	ExperienceVal int    `json:"experienceVal"`
	ContinueDays  int    `json:"continueDays"`
}

func (c *RestyClient) SignIn(ctx context.Context, auth Auth, catID string, fp *model.DeviceFingerprint) (*SignInResult, error) {
	var out signInResponse
	if err := c.post(ctx, "signin", signInPath, signInForm(auth, catID, fp), &out); err != nil {
		return nil, err
	}
	if out.Status != statusOK {
		return nil, c.rejected("signin", out.Status, out.Msg)
	}

	return &SignInResult{ExpGained: out.ExperienceVal, ContinuousDays: out.ContinueDays}, nil
}

func signInForm(auth Auth, catID string, fp *model.DeviceFingerprint) map[string]string {
	return map[string]string{
		"_key":        auth.Key,
		"app_version": AppVersion,
		"cat_id":      catID,
		"device_code": fp.DeviceCode,
		"market_id":   MarketID,
		"platform":    Platform,
		"user_id":     auth.UserID,
	}
}

func (c *RestyClient) post(ctx context.Context, op, path string, form map[string]string, out interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(path)

	return c.decode(ctx, op, resp, err, out)
}

// decode 把传输错误、非 2xx、非 JSON 响应统一转换为错误
func (c *RestyClient) decode(ctx context.Context, op string, resp *resty.Response, err error, out interface{}) error {
	if err != nil {
		metrics.RecordRequest(ctx, op, "transport", elapsed(resp))
		logger.Logger.Warn("Floor request failed",
			zap.String("op", op),
			zap.Error(err),
		)
		return errors.RemoteTransport.Wrap("%s: %v", op, err)
	}

	if resp.IsError() {
		metrics.RecordRequest(ctx, op, "http_error", resp.Time())
		logger.Logger.Warn("Floor returned http error",
			zap.String("op", op),
			zap.Int("status_code", resp.StatusCode()),
		)
		return errors.RemoteRejected.Wrap("%s: http %d", op, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		metrics.RecordRequest(ctx, op, "malformed", resp.Time())
		return c.malformed(op, err.Error())
	}
	metrics.RecordRequest(ctx, op, "ok", resp.Time())
	return nil
}

func elapsed(resp *resty.Response) time.Duration {
	if resp == nil {
		return 0
	}
	return resp.Time()
}

func (c *RestyClient) rejected(op string, status int, msg string) error {
	logger.Logger.Warn("Floor rejected request",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("msg", msg),
	)
	return errors.RemoteRejected.Wrap("%s: status=%d msg=%s", op, status, msg)
}

func (c *RestyClient) malformed(op, detail string) error {
	logger.Logger.Warn("Floor response malformed",
		zap.String("op", op),
		zap.String("detail", detail),
	)
	return errors.RemoteMalformed.Wrap("%s: %s", op, detail)
}
