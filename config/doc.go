// Package config loads and validates scribe's configuration.
//
// Configuration is layered: a YAML config file is the base, a .env file
// and process environment variables override it. Every section struct
// carries ApplyDefaults and Validate methods.
package config
