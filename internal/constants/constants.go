// Package constants defines shared constant values.
package constants

// AppName is the project identifier used in logs, spans and user agents.
const AppName = "mcarch-editor"

// CommandName is the primary CLI command name.
const CommandName = "mcarch"

// ConfigFileName is the default client configuration file.
const ConfigFileName = ".mcarch.json"
