package platform

import (
	"Crosspost/internal/api/config"
	"fmt"
)

// Registry 平台到适配器实例的映射，必须覆盖全部平台枚举
type Registry map[Platform]Adapter

// NewRegistry 构造适配器注册表并校验各平台表的全量性
func NewRegistry(cfg config.PlatformConfig) (Registry, error) {
	registry := Registry{
		Twitter:  NewTwitterAdapter(cfg.Twitter),
		LinkedIn: NewLinkedInAdapter(cfg.LinkedIn),
		Threads:  NewThreadsAdapter(cfg.Threads),
	}

	for _, p := range All() {
		if _, ok := registry[p]; !ok {
			return nil, fmt.Errorf("platform %s has no adapter registered", p)
		}
		if _, ok := charLimits[p]; !ok {
			return nil, fmt.Errorf("platform %s has no char limit configured", p)
		}
		if _, ok := decaySchedules[p]; !ok {
			return nil, fmt.Errorf("platform %s has no decay schedule configured", p)
		}
		if _, ok := pollingHorizons[p]; !ok {
			return nil, fmt.Errorf("platform %s has no polling horizon configured", p)
		}
	}
	return registry, nil
}

// Get 返回平台对应的适配器
func (r Registry) Get(p Platform) (Adapter, bool) {
	adapter, ok := r[p]
	return adapter, ok
}
