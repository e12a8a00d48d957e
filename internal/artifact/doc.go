// Package artifact persists the lifelog as a flat, time-ordered set of files.
//
// Two category directories live under a data root:
//
//	<root>/transcripts/<timestamp>.txt   speech transcripts
//	<root>/images/<timestamp>.txt        generated image descriptions
//	<root>/images/<timestamp>.<ext>      the captured image bytes
//
// The canonical timestamp (package timestamp) is the only key joining an
// image to its description. Ordering is filename-lexicographic. The store
// performs no locking and assumes a single writer per category.
package artifact
