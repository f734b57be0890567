// Package config provides configuration management for the falling blocks server.
//
// The config package handles:
//   - Loading field configurations from JSON or YAML files
//   - Validation through engine.ValidateGameConfig
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Each file in the configs directory describes one field:
//   - width and height of the grid
//   - an optional layout of landed cells, one text row per grid row
//   - the piece catalog, each piece a list of rotation states
//   - the status messages reported after commands
//
// The file name without extension is the config ID used when creating
// sessions. When no classic file exists the built-in 8x6 configuration
// answers for "classic".
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	wells, err := manager.LoadConfig("wells")
//	configs, err := manager.ListConfigs()
package config
