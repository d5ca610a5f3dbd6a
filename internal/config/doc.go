// Package config holds the runtime configuration for campuscrawl.
//
// Configuration comes from three layers, last one wins:
//  1. compiled-in defaults (the Default* constants)
//  2. the .campuscrawl YAML file found in the working directory or the
//     user's home directory
//  3. CAMPUSCRAWL_* environment variables for credentials
//
// CLI flags are applied on top by the cmd package. Validate is called
// once after all layers are merged, before any network call is made.
package config
