// Package persistence stores dashboard documents and session state on disk.
//
// Dashboard documents are kept in their generic decoded form so that they
// can be migrated and written back without losing unknown fields. The file
// extension selects the format: .yaml and .yml files are YAML, everything
// else is JSON.
package persistence
