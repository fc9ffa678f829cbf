// Package config loads the runewire server configuration.
//
// Configuration lives in a TOML file, runewire.toml by default. Every key
// is optional; unset keys keep the values from New.
//
//	[server]
//	address = ":43594"
//	websocket_path = "/play"
//	idle_timeout = "60s"
//	handshake_timeout = "10s"
//	shutdown_timeout = "10s"
//	max_sessions = 2000
//	rights = 0
//
//	[admin]
//	address = "127.0.0.1:9090"
//
//	[protocol]
//	client_revision = 317
//	length_table = "s3://game-assets/tables/317.yaml"
//
//	[protocol.s3]
//	region = "eu-west-1"
//
//	[workers]
//	pool_size = 64
//
//	[log]
//	level = "info"
//	format = "text"
//
// RUNEWIRE_LOG_LEVEL and RUNEWIRE_ADDRESS override log.level and
// server.address.
//
// # Usage
//
//	cfg, err := config.Load("runewire.toml")
//	if err != nil {
//	    errors.PrintError(err)
//	    os.Exit(1)
//	}
package config
