package snowflake

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// 批次号生成器，单进程内只初始化一次

var (
	node     *snowflake.Node
	nodeOnce sync.Once
	nodeErr  error

	errNotInitialized = errors.New("snowflake node is not initialized")
)

// Init machineID 与 dataCenterID 各占 5 位，合成 10 位节点号
func Init(machineID, dataCenterID int64) error {
	nodeOnce.Do(func() {
		if machineID < 0 || machineID > 31 {
			nodeErr = fmt.Errorf("snowflake machine id %d out of range [0, 31]", machineID)
			return
		}
		if dataCenterID < 0 || dataCenterID > 31 {
			nodeErr = fmt.Errorf("snowflake datacenter id %d out of range [0, 31]", dataCenterID)
			return
		}

		node, nodeErr = snowflake.NewNode(dataCenterID<<5 | machineID)
	})

	return nodeErr
}

// NextRunID 每轮批量签到的批次号，Base36 编码后较短，方便在日志中检索
func NextRunID() (string, error) {
	if node == nil {
		return "", errNotInitialized
	}

	return node.Generate().Base36(), nil
}
