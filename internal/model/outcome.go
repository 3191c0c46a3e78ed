package model

// OutcomeKind 单个版块的签到结果
type OutcomeKind int

const (
	OutcomeAlreadyDone OutcomeKind = iota // 今日已签到
	OutcomeSucceeded                      // 签到成功
	OutcomeFailed                         // 签到失败
	OutcomeCheckFailed                    // 签到状态检测失败
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAlreadyDone:
		return "already_done"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeCheckFailed:
		return "check_failed"
	default:
		return "unknown"
	}
}

// CheckInOutcome 记录某个版块本次运行的结果，不落盘
type CheckInOutcome struct {
	Category   Category
	Kind       OutcomeKind
	ExpGained  int
	Continuous int
}
