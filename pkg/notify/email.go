package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
	mail "gopkg.in/mail.v2"

	"FloorSignin/pkg/errors"
	"FloorSignin/pkg/logger"
	"FloorSignin/utils"
)

const emailSubject = "葫芦侠三楼签到报告"

type EmailOptions struct {
	Server    string
	Port      int
	Username  string
	Password  string
	Sender    string
	Recipient string
}

// mailSender 便于测试替换真实 SMTP 连接
type mailSender interface {
	DialAndSend(m ...*mail.Message) error
}

// Email SMTP 邮件通知，465 端口走隐式 TLS
type Email struct {
	opts   EmailOptions
	sender mailSender
}

func NewEmail(opts EmailOptions) (*Email, error) {
	if opts.Server == "" || opts.Port == 0 {
		return nil, errors.NotifierNotConfigured.Wrap("smtp server is empty")
	}
	if opts.Sender == "" || opts.Recipient == "" {
		return nil, errors.NotifierNotConfigured.Wrap("sender or recipient email is empty")
	}

	username := opts.Username
	if username == "" {
		username = opts.Sender
	}

	dialer := mail.NewDialer(opts.Server, opts.Port, username, opts.Password)
	dialer.Timeout = 15 * time.Second

	return &Email{opts: opts, sender: dialer}, nil
}

func (e *Email) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return errors.NotifyFailed.Wrap("email: %v", err)
	}

	m := mail.NewMessage()
	m.SetHeader("From", e.opts.Sender)
	m.SetHeader("To", e.opts.Recipient)
	m.SetHeader("Subject", emailSubject+" "+utils.Now().Format("2006-01-02"))
	m.SetBody("text/plain", text)

	if err := e.sender.DialAndSend(m); err != nil {
		return errors.NotifyFailed.Wrap("email: %v", err)
	}

	logger.Logger.Info("Email notification sent",
		zap.String("recipient", e.opts.Recipient),
	)
	return nil
}

func (e *Email) Name() string {
	return TypeEmail
}
