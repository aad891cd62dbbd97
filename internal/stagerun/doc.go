// Package stagerun executes one pipeline stage pass: a per-item remote
// operation applied sequentially to a list of nodes, with failure isolation,
// a courtesy delay between items, and observer notifications.
//
// The runner carries no stage semantics of its own; stage identity lives in
// the operation closure and the stage name passed by the pipeline.
package stagerun
