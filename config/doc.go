// Package config loads flowkit engine configuration.
//
// It uses Viper to read a YAML/JSON/TOML file and environment variables,
// and godotenv to load an optional .env file first. Environment variables
// use the FLOWKIT_ prefix with underscore-separated paths
// (e.g. FLOWKIT_FUSION_ENABLED=false, FLOWKIT_LOGGING_LEVEL=debug).
//
// # Usage
//
//	cfg, err := config.LoadEngineConfig(config.WithConfigFile("flowkit.yml"))
//	stream := flow.From(src, flow.WithConfig(cfg))
package config
