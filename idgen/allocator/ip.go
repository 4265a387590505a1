package allocator

import (
	"context"
	"net"

	"github.com/ceyewan/idbuilder/clog"
	"github.com/ceyewan/idbuilder/xerrors"
)

// ipAllocator 基于本机 IPv4 地址最后一段分配 WorkerID
//
// 仅适用于同一 /24 网段内的部署，跨网段时可能冲突。
type ipAllocator struct {
	maxID  int
	logger clog.Logger
	addrs  func() ([]net.Addr, error)
}

func newIP(maxID int, logger clog.Logger) *ipAllocator {
	return &ipAllocator{
		maxID:  maxID,
		logger: logger,
		addrs:  net.InterfaceAddrs,
	}
}

func (a *ipAllocator) Allocate(context.Context) (int64, error) {
	ip, err := a.localIPv4()
	if err != nil {
		return 0, err
	}
	workerID := int64(ip[3]) % int64(a.maxID)
	a.logger.Info("worker id derived from ip",
		clog.String("ip", ip.String()),
		clog.Int64("worker_id", workerID),
	)
	return workerID, nil
}

func (a *ipAllocator) KeepAlive(context.Context) <-chan error {
	return make(chan error)
}

func (a *ipAllocator) Stop() {}

// localIPv4 返回第一个非 loopback 的 IPv4 地址
func (a *ipAllocator) localIPv4() (net.IP, error) {
	addrs, err := a.addrs()
	if err != nil {
		return nil, xerrors.Wrap(err, "list interface addrs")
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ip := ipnet.IP.To4(); ip != nil {
				return ip, nil
			}
		}
	}
	return nil, xerrors.WithCode(xerrors.Wrap(xerrors.ErrNotFound, "no non-loopback ipv4 address"), "no_ipv4_address")
}
