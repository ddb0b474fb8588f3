// Package config defines updater settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the registry endpoint, the installed lookup table
// path and the working directory, with defaults matching a standard nmap
// installation so the tool runs without any settings file.
package config
