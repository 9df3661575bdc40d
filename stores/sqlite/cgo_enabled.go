//go:build cgo

package sqlite

// CGOEnabled reports whether the sqlite store is built with cgo support.
const CGOEnabled = true
