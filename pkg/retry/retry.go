// Package retry 封装对外部后端（检索、Embedding）的有限重试。
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rushteam/courserec/core"
)

const (
	DefaultBackoff    = 500 * time.Millisecond
	DefaultMaxRetries = 1
)

// Policy 固定间隔重试；只有 UNAVAILABLE 类错误会重试。
// MaxRetries 为 0 时取默认值 1，小于 0 表示不重试。
type Policy struct {
	Backoff    time.Duration
	MaxRetries int
}

// Notify 在每次重试前调用
type Notify func(err error, wait time.Duration)

// Do 执行 op，失败且可重试时按 Policy 等待后重试；ctx 结束立即返回。
// 返回最后一次的错误（不做额外包装）。
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error, notify Notify) error {
	wait := p.Backoff
	if wait <= 0 {
		wait = DefaultBackoff
	}
	retries := p.MaxRetries
	if retries == 0 {
		retries = DefaultMaxRetries
	} else if retries < 0 {
		retries = 0
	}

	operation := func() error {
		err := op(ctx)
		if err != nil && (!core.IsUnavailable(err) || ctx.Err() != nil) {
			return backoff.Permanent(err)
		}
		return err
	}
	var n backoff.Notify
	if notify != nil {
		n = backoff.Notify(notify)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(wait), uint64(retries)), ctx)
	return backoff.RetryNotify(operation, b, n)
}
