package nameserver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/multierr"

	"github.com/dep2p/go-wins/pkg/types"
)

// SweepStats 一次清扫的统计
type SweepStats struct {
	Scanned    int
	Extended   int
	Released   int
	Tombstoned int
	Deleted    int
	Anomalies  int
}

// Sweep 推进全部已过期记录的生命周期
//
// 本机拥有：Active -> Released -> Tombstoned（分配新版本）-> 删除；
// 副本：Active -> Tombstoned -> 删除；副本处于 Released 视为异常，只记日志。
// Self 记录到期时向后推迟，Dns/DnsFail 记录直接删除，永久记录跳过。
// 只持久化状态确实变化的记录。单条记录失败不影响其余记录，错误合并返回。
func (s *Service) Sweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats
	if !s.sweepMu.TryLock() {
		return stats, ErrSweepRunning
	}
	defer s.sweepMu.Unlock()

	start := s.clock.Now()
	keys, err := s.store.Keys()
	if err != nil {
		return stats, err
	}

	var errs error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		stats.Scanned++
		errs = multierr.Append(errs, s.sweepOne(ctx, key, &stats))
	}

	s.metrics.ObserveSweep(s.clock.Since(start).Seconds())
	if stats.Released+stats.Tombstoned+stats.Deleted+stats.Extended > 0 {
		logger.Debug("清扫完成",
			"scanned", stats.Scanned,
			"extended", stats.Extended,
			"released", stats.Released,
			"tombstoned", stats.Tombstoned,
			"deleted", stats.Deleted)
	}
	return stats, errs
}

// sweepOne 在 key 的锁内推进一条记录
func (s *Service) sweepOne(ctx context.Context, key types.Key, stats *SweepStats) error {
	unlock := s.store.Locks().Lock(key)
	defer unlock()

	rec, err := s.store.Get(key)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if !rec.Expired(now) {
		return nil
	}

	switch rec.Source {
	case types.SourceSelf:
		rec.DeathTime = expiry(now, s.cfg.SelfExtend)
		stats.Extended++
		return s.store.Put(rec)
	case types.SourceDNS, types.SourceDNSFail:
		stats.Deleted++
		s.metrics.ObserveTransition("dns_deleted")
		return s.store.Delete(key)
	}

	if rec.IsLocal() {
		return s.advanceLocal(ctx, rec, now, stats)
	}
	return s.advanceReplica(ctx, rec, now, stats)
}

func (s *Service) advanceLocal(ctx context.Context, rec *types.NameRecord, now time.Time, stats *SweepStats) error {
	switch rec.State() {
	case types.StateActive:
		rec.DeathTime = expiry(now, s.cfg.ExtinctionInterval)
		rec.SetState(types.StateReleased)
		if err := s.store.Put(rec); err != nil {
			return err
		}
		stats.Released++
		s.metrics.ObserveTransition("released")
		logger.Debug("记录已到期，进入 Released", "name", rec.Key)
		s.notify(ctx, types.OpDelete, rec, 0)

	case types.StateReleased:
		rec.DeathTime = expiry(now, s.cfg.ExtinctionTimeout)
		rec.SetState(types.StateTombstoned)
		if err := s.store.PutWithNewVersion(rec); err != nil {
			return err
		}
		stats.Tombstoned++
		s.metrics.ObserveTransition("tombstoned")
		logger.Debug("记录进入 Tombstoned", "name", rec.Key, "version", rec.Version)

	case types.StateTombstoned:
		if err := s.store.Delete(rec.Key); err != nil {
			return err
		}
		stats.Deleted++
		s.metrics.ObserveTransition("deleted")
		logger.Debug("墓碑记录已删除", "name", rec.Key)
	}
	return nil
}

func (s *Service) advanceReplica(ctx context.Context, rec *types.NameRecord, now time.Time, stats *SweepStats) error {
	switch rec.State() {
	case types.StateActive:
		rec.DeathTime = expiry(now, s.cfg.ExtinctionTimeout)
		rec.SetState(types.StateTombstoned)
		if err := s.store.Put(rec); err != nil {
			return err
		}
		stats.Tombstoned++
		s.metrics.ObserveTransition("tombstoned")
		logger.Debug("副本记录到期，直接进入 Tombstoned", "name", rec.Key, "owner", rec.Owner)
		s.notify(ctx, types.OpDelete, rec, 0)

	case types.StateTombstoned:
		if err := s.store.Delete(rec.Key); err != nil {
			return err
		}
		stats.Deleted++
		s.metrics.ObserveTransition("deleted")

	case types.StateReleased:
		stats.Anomalies++
		logger.Warn("副本记录处于 Released 状态，本机不是所有者，保持不变",
			"name", rec.Key,
			"owner", rec.Owner)
	}
	return nil
}

// sweepLoop 按周期清扫
func (s *Service) sweepLoop() {

	ticker := s.clock.Ticker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if !s.cfg.Enabled {
				continue
			}
			if _, err := s.Sweep(s.ctx); err != nil && !errors.Is(err, ErrSweepRunning) && s.ctx.Err() == nil {
				logger.Warn("清扫出错", "error", err)
			}
		}
	}
}

func expiry(now time.Time, d time.Duration) time.Time {
	return now.Add(d).Truncate(time.Second)
}
