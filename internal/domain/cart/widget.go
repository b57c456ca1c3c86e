package cart

import (
	"context"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/principal"
	"backoffice/internal/domain/scope"
)

// WidgetKind enumerates the checkout-conversion widgets a site can enable.
type WidgetKind string

const (
	WidgetUrgencyTimer WidgetKind = "URGENCY_TIMER"
	WidgetScarcity     WidgetKind = "SCARCITY"
	WidgetSocialProof  WidgetKind = "SOCIAL_PROOF"
	WidgetExitIntent   WidgetKind = "EXIT_INTENT"
	WidgetUpsell       WidgetKind = "UPSELL"
)

func validWidgetKind(k WidgetKind) bool {
	switch k {
	case WidgetUrgencyTimer, WidgetScarcity, WidgetSocialProof, WidgetExitIntent, WidgetUpsell:
		return true
	}
	return false
}

// WidgetConfig is one widget's per-site configuration. The storefront only
// receives the config; all rendering happens client-side.
type WidgetConfig struct {
	SiteID  id.ID          `json:"siteId"`
	Kind    WidgetKind     `json:"kind"`
	Enabled bool           `json:"enabled"`
	Params  map[string]any `json:"params,omitempty"`
}

// WidgetConfigRepository persists widget configurations.
type WidgetConfigRepository interface {
	ListBySite(ctx context.Context, siteID id.ID) ([]WidgetConfig, error)
	Upsert(ctx context.Context, cfg WidgetConfig) error
}

// SocialProofCounter tracks live activity counters shown by the
// social-proof widget.
type SocialProofCounter interface {
	Increment(ctx context.Context, siteID id.ID, event string) (int64, error)
	Current(ctx context.Context, siteID id.ID, event string) (int64, error)
}

// SiteDirectory resolves a site to its owning company.
type SiteDirectory interface {
	CompanyIDBySite(ctx context.Context, siteID id.ID) (id.ID, error)
}

// WidgetService serves widget configuration to the storefront and keeps
// social-proof counters.
type WidgetService struct {
	configs   WidgetConfigRepository
	counters  SocialProofCounter
	sites     SiteDirectory
	hierarchy *scope.Hierarchy
}

// NewWidgetService wires the widget service.
func NewWidgetService(configs WidgetConfigRepository, counters SocialProofCounter, sites SiteDirectory, hierarchy *scope.Hierarchy) *WidgetService {
	return &WidgetService{configs: configs, counters: counters, sites: sites, hierarchy: hierarchy}
}

// SiteWidgets returns the enabled widgets for a site, with live counters
// attached to the social-proof config.
func (s *WidgetService) SiteWidgets(ctx context.Context, siteID id.ID) ([]WidgetConfig, error) {
	all, err := s.configs.ListBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	enabled := make([]WidgetConfig, 0, len(all))
	for _, cfg := range all {
		if !cfg.Enabled {
			continue
		}
		if cfg.Kind == WidgetSocialProof {
			n, err := s.counters.Current(ctx, siteID, "recent_purchases")
			if err == nil {
				if cfg.Params == nil {
					cfg.Params = make(map[string]any)
				}
				cfg.Params["recentPurchases"] = n
			}
		}
		enabled = append(enabled, cfg)
	}
	return enabled, nil
}

// Configure upserts a widget configuration for a site. The site's owning
// company must lie inside the caller's scope.
func (s *WidgetService) Configure(ctx context.Context, cfg WidgetConfig) error {
	if id.IsNil(cfg.SiteID) {
		return apperror.NewValidation("siteId is required")
	}
	if !validWidgetKind(cfg.Kind) {
		return apperror.NewValidation("unknown widget kind").WithDetail("kind", string(cfg.Kind))
	}

	p, err := principal.MustFromContext(ctx)
	if err != nil {
		return err
	}
	companyID, err := s.sites.CompanyIDBySite(ctx, cfg.SiteID)
	if err != nil {
		return err
	}
	if err := s.hierarchy.ValidateCompanyAccess(ctx, p, companyID, "configure_widget"); err != nil {
		return err
	}

	return s.configs.Upsert(ctx, cfg)
}

// RecordEvent bumps a social-proof counter.
func (s *WidgetService) RecordEvent(ctx context.Context, siteID id.ID, event string) (int64, error) {
	if event == "" {
		return 0, apperror.NewValidation("event is required")
	}
	return s.counters.Increment(ctx, siteID, event)
}
