// Package updater keeps the installed eim binary current. A Client talks
// to the GitHub releases API (or a configured mirror), picks the archive
// built for the running platform, verifies it against the release checksum
// manifest while downloading, and swaps the executable in place behind a
// probe-and-restore safety net. Startup banners come from a small on-disk
// checkpoint so no command ever waits on the network.
package updater
