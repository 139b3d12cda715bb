// Package configs embeds the configuration template written by
// `docsift config init`.
//
// The template documents every key with its default. Keys whose default
// depends on the machine (index.workers) are left commented out so the
// built-in value applies. Precedence at load time is defaults, user
// config, project config, then DOCSIFT_* environment variables (see
// internal/config Load).
package configs

import _ "embed"

// ProjectConfigTemplate is written to <root>/.docsift.yaml.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
