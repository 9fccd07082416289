// Package helper provides spies for the observability interfaces of the quantityrule package
// and the catalog engine.
package helper
