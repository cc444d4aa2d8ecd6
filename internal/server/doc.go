// Package server exposes the HTTP trigger API.
//
// The API is intentionally small: POST /api/runs with a revision starts
// a build-and-release run (or returns the one already in flight for
// that revision), and GET /api/runs/{id} reports live progress as the
// run moves through its states.
//
// Example usage:
//
//	srv := server.New(server.Config{Addr: ":8730"}, coordinator)
//	if err := srv.Start(); err != nil {
//		log.Fatal(err)
//	}
package server
