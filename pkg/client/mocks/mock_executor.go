// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync/atomic"
)

type Executor struct {
	ExecuteFn    func(ctx context.Context, i uint64, args []string) (any, error)
	ExecuteCalls uint64
}

func (m *Executor) Execute(ctx context.Context, args []string) (any, error) {
	atomic.AddUint64(&m.ExecuteCalls, 1)
	return m.ExecuteFn(ctx, m.GetExecuteCalls(), args)
}

func (m *Executor) GetExecuteCalls() uint64 {
	return atomic.LoadUint64(&m.ExecuteCalls)
}
