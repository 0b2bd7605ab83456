// Package output renders command results as tables, JSON or YAML.
//
// Values that know how to present themselves implement Tabular; anything
// else is rendered by reflection, using json tags for column names.
package output
