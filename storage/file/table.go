package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"FloorSignin/pkg/errors"
	"FloorSignin/pkg/logger"
)

// Table 以 JSON 对象形式整体存放在单个文件中的键值表
// 每次写入都是"读取-修改-整体回写"，不做部分合并
// 回写先写临时文件再 rename，避免中途崩溃留下半个文件
type Table[T any] struct {
	path string
	mu   sync.Mutex
}

func NewTable[T any](path string) *Table[T] {
	return &Table[T]{path: path}
}

// Load 读取整张表，文件不存在时返回空表
func (t *Table[T]) Load() (map[string]T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.load()
}

// Get 读取单条记录
func (t *Table[T]) Get(key string) (T, bool, error) {
	var zero T

	rows, err := t.Load()
	if err != nil {
		return zero, false, err
	}
	v, ok := rows[key]
	return v, ok, nil
}

// Put 覆盖写入单条记录并立即落盘
func (t *Table[T]) Put(key string, value T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.load()
	if err != nil {
		return err
	}
	rows[key] = value

	return t.flush(rows)
}

func (t *Table[T]) load() (map[string]T, error) {
	rows := make(map[string]T)

	data, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return rows, nil
	}
	if err != nil {
		return nil, errors.StoreCorrupt.Wrap("read %s: %v", t.path, err)
	}
	if len(data) == 0 {
		return rows, nil
	}

	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, errors.StoreCorrupt.Wrap("decode %s: %v", t.path, err)
	}
	return rows, nil
}

func (t *Table[T]) flush(rows map[string]T) error {
	data, err := json.MarshalIndent(rows, "", "    ")
	if err != nil {
		return errors.StoreWriteFailed.Wrap("encode %s: %v", t.path, err)
	}

	dir := filepath.Dir(t.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(t.path)+".*.tmp")
	if err != nil {
		return errors.StoreWriteFailed.Wrap("create temp for %s: %v", t.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.StoreWriteFailed.Wrap("write %s: %v", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.StoreWriteFailed.Wrap("sync %s: %v", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.StoreWriteFailed.Wrap("close %s: %v", tmpName, err)
	}

	if err := os.Rename(tmpName, t.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.StoreWriteFailed.Wrap("rename %s: %v", tmpName, err)
	}

	logger.Logger.Debug("Local store flushed",
		zap.String("path", t.path),
		zap.Int("rows", len(rows)),
	)
	return nil
}

func (t *Table[T]) String() string {
	return fmt.Sprintf("file:%s", t.path)
}
