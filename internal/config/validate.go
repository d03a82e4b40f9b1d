package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Credentials are checked by
// RequirePublishCredentials so read-only commands work without them.
func (c *Config) Validate() error {
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateBackends(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"storage.request_timeout":   c.Storage.RequestTimeout,
		"metadata.request_timeout":  c.Metadata.RequestTimeout,
		"proposals.request_timeout": c.Proposals.RequestTimeout,
	})
}

func (c *Config) validatePublish() error {
	if c.Publish.Workers <= 0 {
		return errors.New("publish.workers must be positive")
	}
	if strings.ContainsAny(c.Publish.ManifestName, `/\`) {
		return errors.New("publish.manifest_name must be a file name, not a path")
	}
	return nil
}

func (c *Config) validateBackends() error {
	if err := oneOf("storage.backend", c.Storage.Backend, BackendHTTP, BackendLocal); err != nil {
		return err
	}
	if err := oneOf("metadata.backend", c.Metadata.Backend, BackendHTTP, BackendLocal); err != nil {
		return err
	}
	return oneOf("proposals.backend", c.Proposals.Backend, BackendHTTP, BackendStatic)
}

func (c *Config) validateLogging() error {
	return oneOf("logging.format", c.Logging.Format, "console", "json")
}

// RequirePublishCredentials reports missing settings that only matter once a
// run starts talking to remote stores.
func (c *Config) RequirePublishCredentials() error {
	if c.Storage.Backend == BackendHTTP {
		if c.Storage.URL == "" {
			return errors.New("storage.url must be set when storage.backend is http (or set ARWEAVE_HOST)")
		}
		if c.Storage.Wallet == "" {
			return errors.New("storage.wallet must be set when storage.backend is http (or set ARWEAVE_WALLET)")
		}
	}
	if c.Metadata.Backend == BackendHTTP {
		if c.Metadata.URL == "" {
			return errors.New("metadata.url must be set when metadata.backend is http (or set CERAMIC_NODE_URL)")
		}
		if c.Metadata.Seed == "" {
			return errors.New("metadata.seed must be set when metadata.backend is http (or set CERAMIC_SEED)")
		}
	}
	return c.RequireProposals()
}

// RequireProposals reports missing package state authority settings.
func (c *Config) RequireProposals() error {
	if c.Proposals.Backend == BackendHTTP && c.Proposals.URL == "" {
		return errors.New("proposals.url must be set when proposals.backend is http (or set TUTORIAL_PROPOSALS_URL)")
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return fmt.Errorf("%s: unsupported value %q (expected one of %s)", key, value, strings.Join(allowed, ", "))
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
