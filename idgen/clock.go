package idgen

import (
	"sync/atomic"
	"time"
)

// Clock 毫秒时间源，可在测试中替换
type Clock interface {
	// NowMillis 返回当前 Unix 毫秒时间
	NowMillis() int64
}

type systemClock struct{}

func (systemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// SystemClock 返回基于 time.Now 的系统时钟
func SystemClock() Clock {
	return systemClock{}
}

// ManualClock 手动控制的时钟，可并发使用，主要用于测试
type ManualClock struct {
	now atomic.Int64
}

// NewManualClock 创建初始时间为 millis 的手动时钟
func NewManualClock(millis int64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(millis)
	return c
}

func (c *ManualClock) NowMillis() int64 {
	return c.now.Load()
}

// Set 设置当前时间，允许回拨
func (c *ManualClock) Set(millis int64) {
	c.now.Store(millis)
}

// Advance 前进 delta 毫秒，delta 为负数时模拟时钟回拨
func (c *ManualClock) Advance(delta int64) {
	c.now.Add(delta)
}
