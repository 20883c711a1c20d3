// Package config loads settings for the gophauth command-line client.
//
// Sources are applied in order, later ones winning:
//
//  1. LoadDefaults
//  2. a JSON file named by -c / -config
//  3. command-line flags (-a, -timeout, -retry)
//
// Durations in JSON accept either "5s" style strings or integer
// nanoseconds (see timex.Duration).
package config
