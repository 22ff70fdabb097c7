package config

// DefaultConfigYAML contains the default configuration YAML content.
// This is written by `gripro init` and documents the available options.
const DefaultConfigYAML = `# GriPro Configuration
#
# Values not specified here use sensible defaults. Any key can also be set
# via environment variables with the GRIPRO_ prefix, e.g. GRIPRO_LOG_LEVEL.

# Logging
log:
  level: info    # debug | info | warn | error
  format: auto   # auto | text | json | pretty

# Provider CLI configuration
# Each provider wraps a locally installed CLI tool. Disable providers whose
# CLI is not installed, or point path at the executable to use.
providers:
  claude:
    enabled: true
    path: claude
    timeout: 2m

  gemini:
    enabled: true
    path: gemini
    timeout: 2m

  openai:
    enabled: true
    path: chatgpt
    timeout: 2m

# Project state persistence
state:
  backend: sqlite           # sqlite | json | none
  path: .gripro/state/gripro.db

# Workflow execution
workflow:
  # Characters of each phase result carried into the next phase's context.
  context_limit: 500
  # Characters of an agent message recorded in the activity log.
  message_preview: 100

# Agent roster
# Leave path empty to use the built-in default team. Point it at a YAML
# file to define your own agents; see docs for the format.
roster:
  path: ""
  watch: false

# HTTP control surface (gripro serve)
server:
  addr: 127.0.0.1:8400
`
