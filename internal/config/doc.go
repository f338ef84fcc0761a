// SPDX-License-Identifier: MPL-2.0

// Package config handles ash configuration using Viper with YAML files.
//
// Configuration is merged from ~/.ash/ash.yml, then ./ash.yml, then the file
// named by $ASH_CONFIG; later files win. Any key can be overridden with an
// ASH_ prefixed environment variable where dots become underscores
// (ASH_EXEC_URI_ENV for exec.uri_env). An explicit --config path replaces the
// file lookup entirely.
package config
