// Package config loads and validates edaconf manifests: YAML documents
// declaring the controller connection and the desired activations and
// users. It also provides the fsnotify-based watcher that drives watch
// mode re-reconciliation.
package config
