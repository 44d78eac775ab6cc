package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：读改写期间数据被其他写入者修改，重试预算耗尽
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrBackendUnavailable 存储后端（数据库 / Redis）不可用
var ErrBackendUnavailable = errors.New("存储后端不可用")
