package nameserver

import "errors"

var (
	// ErrServiceClosed 服务已停止
	ErrServiceClosed = errors.New("nameserver: service closed")

	// ErrChallengeNotFound 质询不存在或已结束
	ErrChallengeNotFound = errors.New("nameserver: challenge not found")

	// ErrTooManyChallenges 挂起质询已达上限
	ErrTooManyChallenges = errors.New("nameserver: too many pending challenges")

	// ErrChallengeRateLimited 定向查询超过速率限制
	ErrChallengeRateLimited = errors.New("nameserver: challenge rate limited")

	// ErrSweepRunning 已有清扫在执行
	ErrSweepRunning = errors.New("nameserver: sweep already running")
)
