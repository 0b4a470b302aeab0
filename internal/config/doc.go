// Package config provides configuration management for the feed client.
//
// Configuration is loaded from environment variables using the env package.
// With no variables set the client dials ws://localhost:8080/random-u64,
// sends "something" and keeps every ops surface and Redis disabled.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("dialing %s\n", cfg.WebSocket.URL)
package config
