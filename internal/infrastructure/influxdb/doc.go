// Package influxdb records dataserv-client activity as InfluxDB time series.
//
// It wraps the official influxdb-client-go v2 library. Writes go through
// the non-blocking batched write API, sized by config.yaml (batch_size,
// flush_interval); write failures arrive asynchronously on the callback
// set with SetOnError.
//
// ProcessRecorder adapts a Client to the supervisor's observer hook:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	sup := dataserv.New(dataserv.Config{Observer: client.ProcessRecorder()})
//
// Measurements:
//   - dataserv_process: one point per start and per exit
//     (tags process_key, name, event; fields pid, uptime_seconds, failed)
//   - dataserv_output: one point per relayed chunk
//     (tags process_key, name, stream; field bytes)
package influxdb
