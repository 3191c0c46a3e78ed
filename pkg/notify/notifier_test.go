package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mail "gopkg.in/mail.v2"

	"FloorSignin/config"
	"FloorSignin/pkg/errors"
)

func TestNewSelectsImplementation(t *testing.T) {
	n, err := New(&config.Config{NotifierType: "none"})
	require.NoError(t, err)
	assert.IsType(t, NoOp{}, n)

	n, err = New(&config.Config{NotifierType: "wechat", WechatRobotURL: "http://example.invalid/hook"})
	require.NoError(t, err)
	assert.IsType(t, &Webhook{}, n)

	n, err = New(&config.Config{
		NotifierType: "email",
		SMTPServer:   "smtp.qq.com",
		SMTPPort:     465,
		EmailConfig:  `{"username":"u","auth_code_or_password":"p","sender_email":"s@qq.com","recipient_email":"r@qq.com"}`,
	})
	require.NoError(t, err)
	assert.IsType(t, &Email{}, n)

	_, err = New(&config.Config{NotifierType: "pigeon"})
	assert.True(t, errors.Is(err, errors.NotifierUnsupported))

	_, err = New(&config.Config{NotifierType: "wechat"})
	assert.True(t, errors.Is(err, errors.NotifierNotConfigured))
}

func TestNewEmailWithBrokenConfig(t *testing.T) {
	_, err := New(&config.Config{
		NotifierType: "email",
		SMTPServer:   "smtp.qq.com",
		SMTPPort:     465,
		EmailConfig:  `{broken`,
	})
	assert.True(t, errors.Is(err, errors.NotifierNotConfigured))
}

func TestWebhookSend(t *testing.T) {
	var got webhookMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	hook, err := NewWebhook(srv.URL, time.Second)
	require.NoError(t, err)
	require.NoError(t, hook.Send(context.Background(), "签到完成"))

	assert.Equal(t, "text", got.MsgType)
	assert.Equal(t, "签到完成", got.Text.Content)
}

func TestWebhookErrCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errcode":93000,"errmsg":"invalid webhook url"}`))
	}))
	defer srv.Close()

	hook, err := NewWebhook(srv.URL, time.Second)
	require.NoError(t, err)
	err = hook.Send(context.Background(), "x")
	assert.True(t, errors.Is(err, errors.NotifyFailed))
}

type fakeSender struct {
	sent []*mail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*mail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestEmailSend(t *testing.T) {
	email, err := NewEmail(EmailOptions{Server: "smtp.qq.com", Port: 465, Sender: "s@qq.com", Recipient: "r@qq.com"})
	require.NoError(t, err)
	sender := &fakeSender{}
	email.sender = sender

	require.NoError(t, email.Send(context.Background(), "报告正文"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"r@qq.com"}, sender.sent[0].GetHeader("To"))

	var buf bytes.Buffer
	_, err = sender.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Content-Type: text/plain")

	sender.err = fmt.Errorf("auth failed")
	err = email.Send(context.Background(), "x")
	assert.True(t, errors.Is(err, errors.NotifyFailed))
}

func TestMockNotifier(t *testing.T) {
	m := NewMockNotifier()
	m.FailNext = true
	assert.Error(t, m.Send(context.Background(), "a"))
	assert.NoError(t, m.Send(context.Background(), "b"))
	assert.Equal(t, []string{"a", "b"}, m.Messages)
}
