// Package gitclone fetches the framework repository by shelling out to
// the git executable. Clone progress printed on git's stderr is parsed
// into progress events so the caller's aggregator can render a live bar
// covering both the main transfer and submodule checkouts.
package gitclone
