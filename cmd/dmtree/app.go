package main

import (
	"fmt"

	"github.com/kardianos/dmtree"
	"github.com/kardianos/dmtree/dmhost"
	"github.com/kardianos/dmtree/dmstore"
	"github.com/rs/zerolog"
)

// app carries what every command shares. Stores are opened on first use so
// commands that do not touch connections never create them.
type app struct {
	configPath string
	cfg        Config
	log        zerolog.Logger

	// newProvider defaults to dmtree.Default.
	newProvider func(cfg dmtree.Config) (*dmtree.Provider, error)

	state    *dmhost.BoltState
	provider *dmtree.Provider
}

func defaultProvider(cfg dmtree.Config) (*dmtree.Provider, error) {
	return dmtree.Default(&cfg)
}

// tree opens the stores and returns the process tree provider.
func (a *app) tree() (*dmtree.Provider, error) {
	if a.provider != nil {
		return a.provider, nil
	}

	state, err := dmhost.OpenBoltState(dmhost.Config{AppName: appName, DataDir: dmstore.ExpandPath(a.cfg.Store.DataDir)})
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	secrets, err := openSecrets(a.cfg.Store)
	if err != nil {
		state.Close()
		return nil, fmt.Errorf("open secret store: %w", err)
	}
	a.log.Debug().Str("state", state.Path()).Str("secrets", secrets.Path()).Msg("stores opened")

	newProvider := a.newProvider
	if newProvider == nil {
		newProvider = defaultProvider
	}
	p, err := newProvider(dmtree.Config{
		State:     state,
		Secrets:   dmstore.NewKeyring(secrets),
		BaseURL:   a.cfg.API.BaseURL,
		HTTP3:     a.cfg.API.HTTP3,
		UserAgent: appName,
		Logger:    a.log,
	})
	if err != nil {
		state.Close()
		return nil, err
	}
	a.state = state
	a.provider = p
	return p, nil
}

func (a *app) close() {
	if a.provider != nil {
		_ = a.provider.Close()
	}
	if a.state != nil {
		if err := a.state.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close state")
		}
	}
}

// openSecrets opens the access key store selected by cfg.
func openSecrets(cfg StoreConfig) (dmstore.DataStore, error) {
	b, err := dmstore.ParseBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	return dmstore.Open(b, cfg.SecretPath)
}
