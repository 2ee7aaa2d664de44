// Package output renders command results as aligned tables, JSON or YAML.
//
// Values that know how to present themselves as rows implement Tabular;
// everything else is rendered by the JSON encoder in table mode too.
package output
