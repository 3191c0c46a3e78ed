package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"FloorSignin/config"
	"FloorSignin/pkg/errors"
	"FloorSignin/pkg/logger"
)

const (
	TypeNone   = "none"
	TypeWechat = "wechat"
	TypeEmail  = "email"
)

// Notifier 签到结果推送
type Notifier interface {
	// Send 发送一段完整的文本报告
	Send(ctx context.Context, text string) error
	Name() string
}

// New 根据 NOTIFIER_TYPE 创建通知器
func New(cfg *config.Config) (Notifier, error) {
	var (
		n   Notifier
		err error
	)

	switch cfg.NotifierType {
	case TypeNone, "":
		n = NoOp{}
	case TypeWechat:
		n, err = NewWebhook(cfg.WechatRobotURL, time.Duration(cfg.HTTPTimeoutSeconds)*time.Second)
	case TypeEmail:
		settings, parseErr := cfg.Email()
		if parseErr != nil {
			// 与旧版保持一致：配置解析失败只记录日志，邮箱字段置空
			logger.Logger.Error("Failed to parse EMAIL_CONFIG", zap.Error(parseErr))
		}
		n, err = NewEmail(EmailOptions{
			Server:    cfg.SMTPServer,
			Port:      cfg.SMTPPort,
			Username:  settings.Username,
			Password:  settings.Password,
			Sender:    settings.SenderEmail,
			Recipient: settings.RecipientEmail,
		})
	default:
		err = errors.NotifierUnsupported.Wrap("%s", cfg.NotifierType)
	}

	if err != nil {
		logger.Logger.Error("Failed to initialize notifier",
			zap.String("type", cfg.NotifierType),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Logger.Info("Notifier initialized successfully",
		zap.String("type", n.Name()),
	)
	return n, nil
}

// NoOp 不发送任何通知
type NoOp struct{}

func (NoOp) Send(ctx context.Context, text string) error {
	logger.Logger.Debug("Notification skipped", zap.Int("length", len(text)))
	return nil
}

func (NoOp) Name() string {
	return TypeNone
}
