// Package config loads linkharvest settings from defaults, an optional YAML
// file, a .env file, LINKHARVEST_* environment variables and command line
// flags, in increasing order of precedence.
//
//	cfg, err := config.Load("", map[string]interface{}{
//	    "max":        50,
//	    "output":     "./papers",
//	    "concurrent": 16,
//	})
//
// Configuration files are searched in ./.linkharvest.yaml,
// ~/.config/linkharvest/config.yaml and ~/.linkharvest.yaml.
package config
