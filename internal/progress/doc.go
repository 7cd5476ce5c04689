// Package progress decouples blocking collaborator operations from the
// observer. Workers push fine-grained events onto a bounded channel; an
// aggregator goroutine owned by the installer folds them into smooth,
// non-decreasing stage percentages for whatever sink (terminal, GUI,
// test recorder) is attached.
package progress
