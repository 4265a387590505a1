package idgen

import (
	"strings"

	"github.com/ceyewan/idbuilder/xerrors"
)

// ExhaustionPolicy 当前毫秒序列号耗尽时的处理策略
type ExhaustionPolicy int

const (
	// PolicyBlock 等待时钟进入下一毫秒后继续发号（默认）
	PolicyBlock ExhaustionPolicy = iota

	// PolicyFail 在 MaxWait 内时钟未前进则返回 ErrSequenceExhausted
	PolicyFail
)

func (p ExhaustionPolicy) String() string {
	switch p {
	case PolicyBlock:
		return "block"
	case PolicyFail:
		return "fail"
	default:
		return "unknown"
	}
}

// ParseExhaustionPolicy 解析策略名，空字符串视为 "block"
func ParseExhaustionPolicy(s string) (ExhaustionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "block":
		return PolicyBlock, nil
	case "fail":
		return PolicyFail, nil
	default:
		return PolicyBlock, xerrors.WithCode(
			xerrors.Wrapf(ErrInvalidInput, "unknown exhaustion policy %q", s),
			"unknown_exhaustion_policy",
		)
	}
}
