// Package configs locates lockbox's files and loads its configuration.
//
// Settings are computed once at start-up from the XDG base directories:
//
//   - config: $XDG_CONFIG_HOME/lockbox/config.toml
//   - data:   $XDG_DATA_HOME/lockbox (audit log, default signer registry)
//
// The configuration file is TOML and every key is optional:
//
//	[keys]
//	default_bits = 4096
//
//	[storage]
//	method = "deflated"   # stored | deflated | bzip2 | zstd
//	level = 6
//
//	[loader]
//	max_password_attempts = 0   # 0 retries until the operator gives up
//
//	[signers]
//	default_path = ""
//
//	[audit]
//	enabled = true
//
// A missing file yields the defaults. Values are validated on load so a bad
// storage profile is reported before any container is opened.
package configs
