// Package oui implements the registry parsing and lookup-table merge at the
// heart of the updater.
//
// ParseRegistry extracts vendor assignments from the IEEE OUI registry
// document. Table wraps the installed lookup table's content and appends
// assignments it has not seen before, leaving every existing byte untouched.
// Both are pure text transformations so they can be tested without any
// network or filesystem setup.
package oui
