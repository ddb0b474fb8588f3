// Package updater orchestrates the refresh pipeline for nmap's MAC vendor
// lookup table: privilege check, timestamped backup, registry fetch with
// validation, append-only merge and atomic install.
//
// A marker file guards against concurrent runs; a stale marker is recovered
// by terminating the lingering process and removing it. Each failure point
// maps to a distinct process exit code via ExitCodeFor.
package updater
