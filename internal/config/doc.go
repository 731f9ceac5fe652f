// SPDX-License-Identifier: MPL-2.0

// Package config handles tool-wide defaults for the module parameters using
// Viper with CUE as the file format.
//
// Configuration is looked up in $XDG_CONFIG_HOME/tripleo-containers and then
// /etc/tripleo-containers. In each directory config.cue takes precedence over
// config.toml. Both formats are validated against the embedded CUE schema
// (config_schema.cue) before being merged into Viper, and every key can be
// overridden from the environment as TRIPLEO_CONTAINERS_<KEY>.
package config
