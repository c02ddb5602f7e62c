// Package config provides centralized configuration management for the
// RTU Pulse pipeline. It handles loading configuration from multiple
// sources, validation, and provides a type-safe API for accessing
// configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. Configuration file (rtupulse.yaml next to the executable)
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern RTU_* for namespacing:
//
//	RTU_LOGGING_LEVEL=info
//	RTU_PROCESSING_JOINTOLERANCESECONDS=60
//	RTU_PROCESSING_DEFAULTNOMINALFLOW=9600
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, err := config.GetPaths()
//	combined := paths.GetCombinedPath("BLD01_RTU 3.xlsx")
//
// # Validation
//
// All configuration is validated at load time against the struct tags in
// this package, so a bad tolerance or percentile band fails startup with
// a descriptive error instead of corrupting a batch run.
package config
