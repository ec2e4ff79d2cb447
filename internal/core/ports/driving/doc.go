// Package driving defines the interfaces through which the outside world
// drives the core: running syncs and observing their progress.
package driving
