// Package config provides configuration loading and validation for the
// evaluation service.
//
// It uses Viper to load configuration from files and environment variables,
// supporting YAML files, .env files via godotenv, and environment-specific
// overrides.
//
// # Usage
//
//	var cfg Config
//	err := config.LoadConfig("evalgraph", &cfg)
//
// Environment variables override file values using underscore-separated
// paths (e.g., EVALUATOR_PARALLELISM).
package config
