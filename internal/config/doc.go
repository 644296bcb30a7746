// Package config loads reconcile.yaml.
//
// # Configuration File Structure
//
//	engine:
//	  diff:
//	    keyed: true
//	    lcs: true
//	    match_gaps: false
//	    coalesce_moves: false
//	  max_flush_passes: 100
//	  templates: true
//	  id_prefix: h
//	log:
//	  level: info     # overridden by RECONCILE_LOG_LEVEL
//	  format: text
//	devtools:
//	  addr: localhost:7331
//	metrics:
//	  enabled: true
//	  namespace: reconcile
//
// reconcile.json with the same structure (camelCase keys) is read when no
// YAML file exists.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Logger(os.Stderr)
package config
