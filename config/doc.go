/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads docrepo settings from YAML, a .env file and
// DOCREPO_* environment variables.
//
// Config file locations (priority order):
//  1. $DOCREPO_CONFIG
//  2. ./docrepo.yaml
//  3. $XDG_CONFIG_HOME/docrepo/config.yaml
//  4. ~/.config/docrepo/config.yaml
//
// Example:
//
//	store:
//	  backend: sqlite
//	  sqlite_path: ./docrepo.db
//	  database: app
//	  collection: members
//	retry:
//	  max_wait_seconds: 30
//	  max_attempts: 9
//	save:
//	  bulk_threshold: 5
//	  retry_interval: 2s
//	  throttle_fallback_wait: 1s
//	log:
//	  level: info
//	  format: json
package config
