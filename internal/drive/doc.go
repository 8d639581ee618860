// Package drive persists drives (tabs) and the run history of the
// dataserv-client processes started for them.
//
// A Tab is one storage location the operator farms with: its id is the
// supervisor's identity key and the last path segment of its client config
// (<data_dir>/drives/<id>), so ids are restricted to a filesystem-safe
// alphabet by ValidateID.
//
// HistoryRepository implements dataserv.Observer and records one row per
// tracked process, including output volume and how the process ended.
package drive
