package allocator

import "context"

// staticAllocator 使用固定的 WorkerID，无需保活
type staticAllocator struct {
	workerID int64
}

func newStatic(workerID int64) *staticAllocator {
	return &staticAllocator{workerID: workerID}
}

func (a *staticAllocator) Allocate(context.Context) (int64, error) {
	return a.workerID, nil
}

// KeepAlive 返回的通道永远不会收到错误
func (a *staticAllocator) KeepAlive(context.Context) <-chan error {
	return make(chan error)
}

func (a *staticAllocator) Stop() {}
