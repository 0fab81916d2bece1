// Package domain contains the core types of the dialog flow engine:
// nodes, transition steps, chat state, form records and submission results.
// It has no dependencies on adapters or transport and is safe to import
// from every other package.
package domain
