package service

import (
	"github.com/zenvpn/zen-console/client"
	"github.com/zenvpn/zen-console/config"
	"github.com/zenvpn/zen-console/store"
)

// Services bundles the orchestrators over one client, one store, and one
// shared in-flight guard.
type Services struct {
	Session  *SessionService
	Users    *UserService
	Nodes    *NodeService
	Inbounds *InboundService
	Configs  *ConfigService
	Panel    *PanelService

	Store *store.Store
}

// New wires the orchestrators for the panel described by cfg.
func New(cfg config.Config) *Services {
	api := client.New(cfg.PanelURL, cfg.RequestTimeout)
	return NewWithClient(api, cfg)
}

// NewWithClient wires the orchestrators around an existing client. Used by
// tests to point at an httptest server.
func NewWithClient(api *client.Client, cfg config.Config) *Services {
	st := store.New()
	guard := newInflightGuard()
	return &Services{
		Session:  newSessionService(api, st, cfg.TokenFile),
		Users:    &UserService{api: api, store: st, guard: guard},
		Nodes:    newNodeService(api, st, guard),
		Inbounds: &InboundService{api: api, store: st, guard: guard},
		Configs:  &ConfigService{api: api},
		Panel:    &PanelService{api: api},
		Store:    st,
	}
}
