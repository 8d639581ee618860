// Package mqtt connects driveshare-core to an MQTT broker.
//
// The broker is optional. When enabled, the core publishes:
//   - its own online/offline status (retained, with a Last Will so a crash
//     is visible to other clients)
//   - dataserv-client output events, mirrored from the in-process bus
//     under driveshare/ipc/<namespace>
//
// The client reconnects with backoff. Publishing while disconnected fails
// fast with ErrNotConnected rather than queueing.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(mqtt.Topics{}.IPC("process_output"), event, false)
package mqtt
