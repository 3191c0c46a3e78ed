package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"FloorSignin/pkg/errors"
	"FloorSignin/pkg/logger"
)

// Webhook 企业微信群机器人
type Webhook struct {
	url  string
	http *resty.Client
}

type webhookText struct {
	Content string `json:"content"`
}

type webhookMessage struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func NewWebhook(url string, timeout time.Duration) (*Webhook, error) {
	if url == "" {
		return nil, errors.NotifierNotConfigured.Wrap("webhook url is empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Webhook{
		url:  url,
		http: resty.New().SetTimeout(timeout),
	}, nil
}

func (w *Webhook) Send(ctx context.Context, text string) error {
	resp, err := w.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(webhookMessage{MsgType: "text", Text: webhookText{Content: text}}).
		Post(w.url)
	if err != nil {
		return errors.NotifyFailed.Wrap("webhook: %v", err)
	}
	if resp.IsError() {
		return errors.NotifyFailed.Wrap("webhook: http %d", resp.StatusCode())
	}
	// 非 JSON 响应视为成功，兼容通用 webhook
	var out webhookResponse
	if json.Unmarshal(resp.Body(), &out) == nil && out.ErrCode != 0 {
		return errors.NotifyFailed.Wrap("webhook: errcode=%d errmsg=%s", out.ErrCode, out.ErrMsg)
	}

	logger.Logger.Info("Webhook notification sent", zap.Int("length", len(text)))
	return nil
}

func (w *Webhook) Name() string {
	return TypeWechat
}
