// Package file persists application configuration as a TOML file in
// the sharewatch config directory.
package file
