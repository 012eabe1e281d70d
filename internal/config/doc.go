// Package config provides configuration structures and utilities for DupScan.
// It defines the analysis thresholds, variant probe settings, storage
// location and report preferences, plus the optional .dupscan file with
// per-site client identities.
package config
