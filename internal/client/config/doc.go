// Package config provides configuration loading for the cardkeeper CLI.
//
// Values are resolved in this order, later sources overriding earlier ones:
//  1. Defaults (LoadDefaults).
//  2. A .env file in the working directory, then the process environment.
//  3. A JSON file named by -c / -config.
//  4. Global command-line flags (see GlobalFlags).
//
// Only the global flags are consumed here; everything else on the command
// line is left for the subcommand.
package config
