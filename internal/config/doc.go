// Package config loads process-level configuration from the environment.
//
// Configuration is read exactly once at startup by Load and carried through
// the application as an explicit *Config value; no package reads environment
// variables afterwards. Required keys (bot token, model API key, storage
// base URL, allow-list) abort startup when missing, per the propagation
// policy that only configuration faults may prevent the process from
// answering users.
package config
