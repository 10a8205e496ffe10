// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"fmt"
)

// 错误分类。具体错误通过 fmt.Errorf("%w: ...") 包装，调用方使用 errors.Is 判断。
var (
	// ErrValidation 输入不合法或外部返回缺少必需字段，属于调用方错误，不重试。
	ErrValidation = errors.New("validation error")
	// ErrInvalidURL 是 ErrValidation 的一种。
	ErrInvalidURL = fmt.Errorf("%w: invalid url", ErrValidation)
	// ErrFetch 抓取失败或抓取结果为空。
	ErrFetch = errors.New("fetch error")
	// ErrIndexing 上传或索引失败，包括 batch 进入非 completed 终态。
	ErrIndexing = errors.New("indexing error")
	// ErrTransport 对话服务调用本身失败（非终态问题）。
	ErrTransport = errors.New("transport error")
	// ErrNotFound 查询的记录不存在。
	ErrNotFound = errors.New("not found")
)
