package service

import (
	"fmt"
	"strings"

	"FloorSignin/internal/model"
)

// AccountReport 单个账号本次运行的结果
type AccountReport struct {
	Account            string
	State              State
	Profile            *model.Profile // 签到前
	Final              *model.Profile // 签到后，获取失败时为 nil
	Outcomes           []model.CheckInOutcome
	Planned            int // 计划签到的版块数
	TotalExp           int
	ContinuousDays     int
	UsedCachedSession  bool
	FingerprintCreated bool
	SessionSaveFailed  bool
	StoreErr           error // 本地存储错误，仅 StateStoreFailed 时非 nil
}

func (r *AccountReport) storeFailed(err error) {
	r.State = StateStoreFailed
	r.StoreErr = err
}

func (r *AccountReport) add(o model.CheckInOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Kind == model.OutcomeSucceeded {
		r.TotalExp += o.ExpGained
		r.ContinuousDays = o.Continuous
	}
}

func (r *AccountReport) count(kind model.OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// RemainingDays 按本次获得的经验估算升级所需天数，本次未获得经验时无法估算
func (r *AccountReport) RemainingDays() (int, bool) {
	if r.Final == nil || r.TotalExp <= 0 {
		return 0, false
	}
	gap := r.Final.NextExp - r.Final.Exp
	if gap < 0 {
		gap = 0
	}
	return gap/r.TotalExp + 1, true
}

// String 生成推送用的文本报告
func (r *AccountReport) String() string {
	switch r.State {
	case StateInit, StateLoginFailed:
		return fmt.Sprintf("账号 %s 登录失败，请检查账号或密码\n", r.Account)
	case StateAuthenticated, StateProfileUnavailable:
		return fmt.Sprintf("用户信息获取失败，跳过账号 %s\n", r.Account)
	case StateStoreFailed:
		return fmt.Sprintf("账号 %s 本地存储异常，签到已终止，请检查运行环境：%v\n", r.Account, r.StoreErr)
	}

	var sb strings.Builder
	p := r.Profile
	fmt.Fprintf(&sb, "用户 <%s> 签到中...\n", p.Nickname)
	fmt.Fprintf(&sb, "等级: Lv.%d\n", p.Level)
	fmt.Fprintf(&sb, "当前经验值: %d/%d\n", p.Exp, p.NextExp)

	for _, o := range r.Outcomes {
		sb.WriteString(outcomeLine(o))
		sb.WriteString("\n")
	}

	if r.State != StateReported {
		fmt.Fprintf(&sb, "签到中断，已完成 %d/%d 个版块\n", len(r.Outcomes), r.Planned)
	}

	fmt.Fprintf(&sb, "本次为%s签到共获得：%d 经验值\n", p.Nickname, r.TotalExp)

	if f := r.Final; f != nil {
		fmt.Fprintf(&sb, "已为%s完成签到\n", f.Nickname)
		fmt.Fprintf(&sb, "等级：Lv.%d\n", f.Level)
		fmt.Fprintf(&sb, "经验值：%d/%d\n", f.Exp, f.NextExp)
		fmt.Fprintf(&sb, "已连续签到 %d 天\n", r.ContinuousDays)
		if days, ok := r.RemainingDays(); ok {
			fmt.Fprintf(&sb, "还需签到 %d 天\n", days)
		} else {
			sb.WriteString("还需签到 未知 天\n")
		}
	}

	return sb.String()
}

func outcomeLine(o model.CheckInOutcome) string {
	switch o.Kind {
	case model.OutcomeAlreadyDone:
		return fmt.Sprintf("【%s】今日已签到", o.Category.Name)
	case model.OutcomeSucceeded:
		return fmt.Sprintf("【%s】签到成功，经验值 +%d", o.Category.Name, o.ExpGained)
	case model.OutcomeCheckFailed:
		return fmt.Sprintf("【%s】签到检测失败，请手动签到。", o.Category.Name)
	default:
		return fmt.Sprintf("【%s】签到失败，请手动签到。", o.Category.Name)
	}
}
