// Package config loads, normalizes, and validates tutorialpub configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ARWEAVE_WALLET and CERAMIC_SEED. The Config type centralizes every knob the
// publish pipeline and CLI need so store backends, credentials, and worker
// limits are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
