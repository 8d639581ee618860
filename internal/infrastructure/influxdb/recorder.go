package influxdb

import (
	"time"

	"github.com/nerrad567/driveshare-core/internal/dataserv"
)

// Measurement names written by ProcessRecorder.
const (
	MeasurementProcess = "dataserv_process"
	MeasurementOutput  = "dataserv_output"
)

// ProcessRecorder writes supervisor lifecycle and output volume points.
type ProcessRecorder struct {
	client *Client
	now    func() time.Time
}

var _ dataserv.Observer = (*ProcessRecorder)(nil)

// ProcessRecorder returns an observer that writes through c.
func (c *Client) ProcessRecorder() *ProcessRecorder {
	return &ProcessRecorder{client: c, now: time.Now}
}

// ProcessStarted writes a start point.
func (r *ProcessRecorder) ProcessStarted(p *dataserv.Process) {
	r.client.WritePoint(MeasurementProcess,
		processTags(p, "start"),
		map[string]any{"pid": p.PID()},
		p.StartedAt(),
	)
}

// OutputRelayed writes the size of one relayed chunk.
func (r *ProcessRecorder) OutputRelayed(p *dataserv.Process, stream string, n int) {
	r.client.WritePoint(MeasurementOutput,
		map[string]string{
			"process_key": p.ID(),
			"name":        p.Name(),
			"stream":      stream,
		},
		map[string]any{"bytes": n},
		r.now(),
	)
}

// ProcessExited writes an exit point with the run's uptime.
func (r *ProcessRecorder) ProcessExited(p *dataserv.Process, err error) {
	now := r.now()
	fields := map[string]any{
		"pid":            p.PID(),
		"uptime_seconds": now.Sub(p.StartedAt()).Seconds(),
		"failed":         err != nil,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	r.client.WritePoint(MeasurementProcess, processTags(p, "exit"), fields, now)
}

func processTags(p *dataserv.Process, event string) map[string]string {
	return map[string]string{
		"process_key": p.ID(),
		"name":        p.Name(),
		"event":       event,
	}
}
