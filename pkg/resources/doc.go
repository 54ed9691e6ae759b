// Package resources defines the declarative resource types edaconf manages
// in an EDA controller: rulebook activations and users. Each type carries
// its manifest fields with validation tags and implements engine.Spec, which
// tells the reconciliation engine how to look the resource up, which
// foreign keys to resolve, and how to compare it against live state.
package resources
