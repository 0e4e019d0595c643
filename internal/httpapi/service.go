package httpapi

import (
	"llamalink/internal/probe"
	"llamalink/internal/resolver"
	"llamalink/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Platforms() []types.TargetPlatform
	Plan(platform types.TargetPlatform) (types.LinkPlan, error)
}

// ResolverService answers plan requests from a fixed plugin layout and environment.
type ResolverService struct {
	Resolver *resolver.Resolver
	LibRoot  string
	DirRoot  string
	Env      probe.Env
}

func (s *ResolverService) Platforms() []types.TargetPlatform { return types.Platforms() }

func (s *ResolverService) Plan(platform types.TargetPlatform) (types.LinkPlan, error) {
	return s.Resolver.Resolve(platform, s.LibRoot, s.DirRoot, s.Env)
}
