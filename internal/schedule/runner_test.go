package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FloorSignin/internal/cache"
	"FloorSignin/internal/model"
	"FloorSignin/internal/service"
	"FloorSignin/pkg/errors"
	"FloorSignin/pkg/notify"
)

// step 记录调用顺序，账号处理与等待交错出现
type recorder struct {
	steps []string
}

type fakeAccounts struct {
	rec     *recorder
	results map[string]*service.AccountReport
	errs    map[string]error
}

func (f *fakeAccounts) Run(ctx context.Context, account model.Account) (*service.AccountReport, error) {
	f.rec.steps = append(f.rec.steps, "run:"+account.Identifier)
	if rep, ok := f.results[account.Identifier]; ok {
		return rep, f.errs[account.Identifier]
	}
	return &service.AccountReport{Account: account.Identifier, State: service.StateLoginFailed}, f.errs[account.Identifier]
}

type fakePacer struct {
	rec *recorder
	err error
}

func (p *fakePacer) Wait(ctx context.Context) error {
	p.rec.steps = append(p.rec.steps, "wait")
	return p.err
}

func newTestRunner(accounts *fakeAccounts, pacer *fakePacer, n notify.Notifier, lock Locker) *Runner {
	return NewRunner(RunnerOptions{
		Accounts: accounts,
		Notifier: n,
		Pacer:    pacer,
		Lock:     lock,
	})
}

func reported(account, nickname string) *service.AccountReport {
	return &service.AccountReport{
		Account: account,
		State:   service.StateReported,
		Profile: &model.Profile{Nickname: nickname, Level: 3, Exp: 10, NextExp: 50},
	}
}

func TestRunnerFirstLoginFailureDoesNotStopSecond(t *testing.T) {
	rec := &recorder{}
	accounts := &fakeAccounts{
		rec:     rec,
		results: map[string]*service.AccountReport{"b@x.com": reported("b@x.com", "小葫芦")},
	}
	mock := notify.NewMockNotifier()

	result, err := newTestRunner(accounts, &fakePacer{rec: rec}, mock, nil).Run(context.Background(), []model.Account{
		{Identifier: "a@x.com", Secret: "bad"},
		{Identifier: "b@x.com", Secret: "pw2"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"run:a@x.com", "wait", "run:b@x.com"}, rec.steps)
	require.Len(t, result.Reports, 2)
	assert.Equal(t, service.StateLoginFailed, result.Reports[0].State)
	assert.Equal(t, service.StateReported, result.Reports[1].State)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, mock.Messages, 1)
	assert.Contains(t, mock.Messages[0], "账号 a@x.com 登录失败，请检查账号或密码")
	assert.Contains(t, mock.Messages[0], "用户 <小葫芦> 签到中...")
	assert.True(t, result.Notified)
}

func TestRunnerNoDelayAfterLastAccount(t *testing.T) {
	rec := &recorder{}
	accounts := &fakeAccounts{rec: rec}

	_, err := newTestRunner(accounts, &fakePacer{rec: rec}, notify.NewMockNotifier(), nil).Run(context.Background(), []model.Account{
		{Identifier: "a@x.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"run:a@x.com"}, rec.steps)
}

func TestRunnerStopsOnPersistenceError(t *testing.T) {
	rec := &recorder{}
	accounts := &fakeAccounts{
		rec:  rec,
		errs: map[string]error{"b@x.com": errors.StoreCorrupt.Wrap("hlxconfig.json")},
		results: map[string]*service.AccountReport{
			"a@x.com": reported("a@x.com", "一号"),
			"b@x.com": {Account: "b@x.com", State: service.StateInit},
		},
	}
	mock := notify.NewMockNotifier()

	result, err := newTestRunner(accounts, &fakePacer{rec: rec}, mock, nil).Run(context.Background(), []model.Account{
		{Identifier: "a@x.com"},
		{Identifier: "b@x.com"},
		{Identifier: "c@x.com"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsPersistence(err))

	assert.Equal(t, []string{"run:a@x.com", "wait", "run:b@x.com"}, rec.steps)
	assert.Equal(t, 1, result.Skipped)
	// 已完成的部分仍然推送
	require.Len(t, mock.Messages, 1)
	assert.Contains(t, mock.Messages[0], "一号")
}

func TestRunnerCancelledBetweenAccounts(t *testing.T) {
	rec := &recorder{}
	accounts := &fakeAccounts{rec: rec}

	result, err := newTestRunner(accounts, &fakePacer{rec: rec, err: context.Canceled}, notify.NewMockNotifier(), nil).Run(context.Background(), []model.Account{
		{Identifier: "a@x.com"},
		{Identifier: "b@x.com"},
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"run:a@x.com", "wait"}, rec.steps)
	assert.Equal(t, 1, result.Skipped)
}

func TestRunnerNotifyFailureIsNotFatal(t *testing.T) {
	rec := &recorder{}
	mock := notify.NewMockNotifier()
	mock.FailNext = true

	result, err := newTestRunner(&fakeAccounts{rec: rec}, &fakePacer{rec: rec}, mock, nil).Run(context.Background(), []model.Account{
		{Identifier: "a@x.com"},
	})
	require.NoError(t, err)
	assert.False(t, result.Notified)
	assert.Len(t, mock.Messages, 1)
}

func TestRunnerNoAccounts(t *testing.T) {
	rec := &recorder{}
	mock := notify.NewMockNotifier()

	result, err := newTestRunner(&fakeAccounts{rec: rec}, &fakePacer{rec: rec}, mock, nil).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rec.steps)
	assert.Empty(t, result.Reports)
	assert.Empty(t, mock.Messages)
}

func TestRunnerSkipsWhenLockHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	holder := cache.NewRunLock(client, "signin", "other-host")
	ok, err := holder.TryLock(context.Background(), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	rec := &recorder{}
	runner := newTestRunner(&fakeAccounts{rec: rec}, &fakePacer{rec: rec}, notify.NewMockNotifier(),
		cache.NewRunLock(client, "signin", "this-host"))

	_, err = runner.Run(context.Background(), []model.Account{{Identifier: "a@x.com"}})
	require.NoError(t, err)
	assert.Empty(t, rec.steps)

	require.NoError(t, holder.Unlock(context.Background()))

	_, err = runner.Run(context.Background(), []model.Account{{Identifier: "a@x.com"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"run:a@x.com"}, rec.steps)

	// 运行结束后锁已释放
	ok, err = holder.TryLock(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
