package router

import (
	"sort"

	httpez "playlog/internal/transport/http/ez"
)

// APIModule pub 为公开分组，authed 已挂鉴权中间件
type APIModule interface {
	MountAPI(pub, authed httpez.EZ)
}

// 可选：实现该接口可控制挂载顺序（数值越小越先挂）
// 不实现则默认 100
type prioritizer interface{ Priority() int }

type Registry struct {
	mods []APIModule
}

func (r *Registry) Register(mods ...APIModule) {
	r.mods = append(r.mods, mods...)
}

// MountAll 按优先级挂载所有模块
func (r *Registry) MountAll(pub, authed httpez.EZ) {
	mods := append([]APIModule(nil), r.mods...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAPI(pub, authed)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
