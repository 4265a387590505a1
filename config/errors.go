package config

import "github.com/ceyewan/idbuilder/xerrors"

// ErrValidationFailed 配置验证失败
var ErrValidationFailed = xerrors.New("configuration validation failed")

// IsNotFound 检查错误是否为配置未找到
func IsNotFound(err error) bool {
	return xerrors.Is(err, xerrors.ErrNotFound)
}

// IsValidationFailed 检查错误是否为配置验证失败
func IsValidationFailed(err error) bool {
	return xerrors.Is(err, ErrValidationFailed)
}

// wrapLoadError 包装加载错误
func wrapLoadError(err error, message string) error {
	if err == nil {
		return nil
	}
	return xerrors.Wrapf(err, "failed to load config: %s", message)
}
