// Package run coordinates a build-and-release run across the target
// matrix.
//
// A run fans out one build worker per target, waits until every worker
// has reached a terminal status, and only then moves on. If any target
// failed the run aborts and nothing is published. If the whole matrix
// succeeded the coordinator re-reads every artifact from the store,
// derives the release bundle and checksum manifest, and publishes
// exactly once.
//
// Example usage:
//
//	c := &run.Coordinator{
//		Binary:    m.Binary,
//		Targets:   m.Targets,
//		Compiler:  comp,
//		Store:     store,
//		Publisher: pub,
//		Timeout:   m.Timeout(),
//		Scratch:   scratch,
//	}
//
//	r := c.NewRun("1.4.2")
//	report, err := c.Execute(ctx, r)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(report.ReleaseID)
package run
