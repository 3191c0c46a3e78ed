package model

// Profile 用户资料，Exp/NextExp 表示当前等级的升级进度
type Profile struct {
	Nickname string
	Level    int
	Exp      int
	NextExp  int
}
