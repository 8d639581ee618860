// Package config handles loading and validating driveshare configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (DRIVESHARE_*)
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token, JWT secret) should be
//     set via environment variables
//   - The config file should have restricted permissions (0600)
//   - Leaving security.jwt.secret empty disables API authentication; only do
//     this when the API listens on loopback
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.DataDir)
package config
