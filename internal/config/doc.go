// Package config provides configuration structures and utilities for RavenX.
// It defines the scan options, their defaults and validation, the .ravenx
// YAML file format, and XDG base directory paths.
package config
