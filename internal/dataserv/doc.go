// Package dataserv supervises the external dataserv-client binary on behalf
// of the host.
//
// A Supervisor owns the registry that maps a drive identity to at most one
// running client process. Command methods (Farm, Build, Register, Poll)
// compose the client's strict argument conventions and start the process
// through Bootstrap; every chunk the child writes to stdout or stderr is
// relayed to the process's scoped StreamLogger and sent on the host IPC
// Channel under the "process_output" namespace.
//
// Short-lived invocations (SetAddress, ValidateClient) run to completion
// through a process.Runner and are never registered.
//
// Registry lifecycle per identity key:
//
//	unregistered --Bootstrap--> running --Terminate / exit--> terminated
//	                               ^                              |
//	                               +----------Bootstrap-----------+
//
// Terminated keys stay addressable as tombstones so callers can tell
// "was running, now stopped" from "never started".
//
// Children never outlive the host: the first Supervisor installs a single
// hook in the shutdown registry that terminates every live child of every
// Supervisor still open when the host exits.
//
// Example usage:
//
//	sup := dataserv.New(dataserv.Config{
//	    DataDir: "/var/lib/driveshare",
//	    Channel: bus,
//	})
//	defer sup.Close()
//
//	if _, err := sup.Farm(tab, dataserv.Options{StoragePath: "/mnt/disk1", MaxSizeGB: 500}); err != nil {
//	    return err
//	}
package dataserv
