// Package config loads the dashboard configuration.
//
// Values come from three sources, highest priority first:
//
//  1. IMCE_* environment variables
//  2. a YAML file (IMCE_CONFIG_FILE, or config.yaml / configs/config.yaml
//     searched upward from the working directory)
//  3. the defaults declared on the struct tags
//
// Environment variables follow the struct nesting:
//
//	IMCE_SERVER_PORT=8050
//	IMCE_DATA_DIR=/srv/imce/data
//	IMCE_DATA_GRC_FILE=GRC_clean.csv
//	IMCE_LOGGING_LEVEL=debug
//	IMCE_CACHE_TTL=5m
//
// ResolvePaths turns the data section into absolute file paths. A relative
// data directory is taken from the working directory when it exists there,
// otherwise from the executable's directory.
//
// Tests use Default, which needs no file and no environment.
package config
