// Package process provides the OS-level primitives used to run the
// dataserv-client binary.
//
// Two shapes of execution are supported:
//
//   - Long-running children started through a Spawner. The returned Handle
//     exposes the child's pid, its stdout/stderr streams, a Kill that
//     signals the whole process group, and a Wait that reports how the
//     child ended (including failures to start at all).
//   - One-shot commands run to completion through a Runner, with stdout and
//     stderr collected into memory.
//
// Both are interfaces so callers can substitute fakes in tests.
//
// Example usage:
//
//	h := process.ExecSpawner{KillTimeout: 10 * time.Second}.Spawn(
//	    "dataserv-client", []string{"poll"})
//	go io.Copy(os.Stdout, h.Stdout())
//	go io.Copy(os.Stderr, h.Stderr())
//	defer h.Kill()
//
//	stdout, _, err := process.ExecRunner{}.Run(ctx, "dataserv-client",
//	    []string{"--version"})
package process
