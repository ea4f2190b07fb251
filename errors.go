package wins

import (
	"errors"

	"github.com/dep2p/go-wins/internal/wins/nameserver"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 服务器生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 服务器未启动
	ErrNotStarted = errors.New("server not started")

	// ErrAlreadyStarted 服务器已启动
	ErrAlreadyStarted = errors.New("server already started")

	// ErrServerClosed 服务器已关闭
	ErrServerClosed = errors.New("server closed")

	// ────────────────────────────────────────────────────────────────────────
	// 名称服务错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrChallengeNotFound 质询不存在或已结束
	ErrChallengeNotFound = nameserver.ErrChallengeNotFound

	// ErrSweepRunning 已有清扫在执行
	ErrSweepRunning = nameserver.ErrSweepRunning
)
