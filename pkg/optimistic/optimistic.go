// Package optimistic provides the "write, then apply on success" helper used by
// client-side state that must never run ahead of the server.
package optimistic

import (
	"context"
	"fmt"
)

// Commit 先执行远端写入，成功后才把结果应用到本地状态。
// 写入失败时 apply 不会被调用，本地状态保持不变。
func Commit[T any](ctx context.Context, write func(context.Context) (T, error), apply func(T)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	result, err := write(ctx)
	if err != nil {
		return zero, fmt.Errorf("optimistic commit: %w", err)
	}
	if apply != nil {
		apply(result)
	}
	return result, nil
}
