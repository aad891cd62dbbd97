// Package pipeline orchestrates the bulk-extraction run against a remote
// drive: resolve the target path, discover archives, extract them, relocate
// the extracted contents up into the target directory, delete the emptied
// folders, and optionally delete the source archives.
//
// Each stage gets exactly one retry pass, applied only to the items that
// failed the immediately preceding pass, with a longer inter-item delay.
// Stages are never rolled back; failures surviving the retry are terminal and
// end up in the run report.
package pipeline
