// Package configs embeds the configuration template written by `shardex config init`.
//
// Configuration hierarchy (see internal/config Load()):
//  1. Hardcoded defaults (config.NewConfig)
//  2. User config (~/.config/shardex/config.yaml)
//  3. Local config (.shardex.yaml in the working directory)
//  4. Environment variables (SHARDEX_*)
package configs

import _ "embed"

// ConfigTemplate is the commented template for ~/.config/shardex/config.yaml.
//
//go:embed config.example.yaml
var ConfigTemplate string
