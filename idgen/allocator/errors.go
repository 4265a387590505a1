package allocator

import "github.com/ceyewan/idbuilder/xerrors"

var (
	// ErrWorkerIDExhausted 所有 WorkerID 都已被占用
	ErrWorkerIDExhausted = xerrors.New("allocator: no available worker id")

	// ErrLeaseExpired 租约已丢失，WorkerID 可能已被其他进程占用
	ErrLeaseExpired = xerrors.New("allocator: lease expired")

	// ErrInvalidInput 无效的输入
	ErrInvalidInput = xerrors.New("allocator: invalid input")

	// ErrNotAllocated 尚未调用 Allocate
	ErrNotAllocated = xerrors.New("allocator: worker id not allocated")
)
