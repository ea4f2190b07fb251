package nameserver

import (
	"context"
	"fmt"

	"github.com/dep2p/go-wins/pkg/types"
)

// selfTypes 本机名称登记的类型
var selfTypes = []types.NameType{
	types.TypeWorkstation,
	types.TypeMessenger,
	types.TypeServer,
}

// SeedSelfNames 登记本机名称
//
// Identity 中的每个名称以 <00>、<03>、<20> 登记为 Self 记录，
// 另加永久记录 *<00>。没有配置本机地址时什么都不做。
func (s *Service) SeedSelfNames(ctx context.Context) error {
	if len(s.cfg.Addrs) == 0 {
		return nil
	}

	for _, name := range s.cfg.Names {
		for _, t := range selfTypes {
			key, err := types.NewKey(name, t)
			if err != nil {
				return fmt.Errorf("nameserver: self name %q: %w", name, err)
			}
			if err := s.seed(ctx, key, types.SourceSelf); err != nil {
				return err
			}
		}
	}
	return s.seed(ctx, types.MustKey("*", types.TypeWorkstation), types.SourcePermanent)
}

func (s *Service) seed(ctx context.Context, key types.Key, source types.Source) error {
	unlock := s.store.Locks().Lock(key)
	defer unlock()

	rec := &types.NameRecord{
		Key:     key,
		NBFlags: types.NBNodeH | types.NBActive,
		Source:  source,
		Owner:   types.LocalOwner,
		IPs:     append(s.cfg.Addrs[:0:0], s.cfg.Addrs...),
	}
	if source != types.SourcePermanent {
		rec.SetTTL(s.clock.Now(), s.cfg.MaxTTL)
	}
	rec.SetState(types.StateActive)

	if err := s.store.PutWithNewVersion(rec); err != nil {
		return fmt.Errorf("nameserver: seed %s: %w", key, err)
	}
	logger.Debug("本机名称已登记", "name", key, "source", source)
	s.notify(ctx, types.OpAdd, rec, s.cfg.MaxTTL)
	return nil
}
