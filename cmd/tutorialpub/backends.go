package main

import (
	"errors"
	"fmt"
	"log/slog"

	"tutorialpub/internal/config"
	"tutorialpub/internal/history"
	"tutorialpub/internal/logging"
	"tutorialpub/internal/metadata"
	"tutorialpub/internal/metadata/httpdoc"
	"tutorialpub/internal/metadata/localdoc"
	"tutorialpub/internal/proposal"
	"tutorialpub/internal/publish"
	"tutorialpub/internal/storage"
	"tutorialpub/internal/storage/httpstore"
	"tutorialpub/internal/storage/localstore"
)

func buildDependencies(cfg *config.Config, logger *slog.Logger) (publish.Dependencies, func(), error) {
	deps := publish.Dependencies{Logger: logger}
	noop := func() {}

	var err error
	if deps.Storage, err = newStorage(cfg); err != nil {
		return deps, noop, err
	}
	if deps.Metadata, err = newMetadata(cfg); err != nil {
		return deps, noop, err
	}
	if deps.Proposals, err = newProposals(cfg); err != nil {
		return deps, noop, err
	}
	if !cfg.History.Enabled {
		return deps, noop, nil
	}
	ledger, err := history.Open(cfg.History.Path)
	if err != nil {
		return deps, noop, fmt.Errorf("open history: %w", err)
	}
	deps.History = ledger
	closeLedger := func() {
		if err := ledger.Close(); err != nil {
			logger.Warn("history close failed", logging.Error(err))
		}
	}
	return deps, closeLedger, nil
}

func newStorage(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendLocal:
		return localstore.Open(cfg.Storage.LocalDir)
	default:
		return httpstore.New(cfg.Storage.URL, cfg.Storage.AppName, httpstore.WithTimeout(cfg.StorageTimeout()))
	}
}

func newMetadata(cfg *config.Config) (metadata.Store, error) {
	switch cfg.Metadata.Backend {
	case config.BackendLocal:
		return localdoc.New(cfg.Metadata.LocalDir)
	default:
		return httpdoc.New(cfg.Metadata.URL, cfg.Metadata.Seed, httpdoc.WithTimeout(cfg.MetadataTimeout()))
	}
}

func newProposals(cfg *config.Config) (proposal.Authority, error) {
	switch cfg.Proposals.Backend {
	case config.BackendStatic:
		return &proposal.Static{State: cfg.Proposals.StaticState}, nil
	default:
		return proposal.NewClient(cfg.Proposals.URL, proposal.WithTimeout(cfg.ProposalsTimeout()))
	}
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, errors.New("run history is disabled (set history.enabled = true)")
	}
	ledger, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return ledger, nil
}
