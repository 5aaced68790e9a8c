// Package dataprocessing turns raw spreadsheet bytes into uniform tables
// and computes per-column descriptive statistics.
//
// The package is the deterministic half of the analysis pipeline: parsing
// and aggregation never touch the network, so identical inputs always
// yield identical outputs. Type coercion happens exactly once, during
// parsing, and downstream consumers pattern-match on the resulting cell
// kinds instead of guessing at shapes.
package dataprocessing
