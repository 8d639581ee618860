// Package ipc carries supervisor notifications to the rest of the host.
//
// Bus is the in-process hub: the supervisor sends to it, and the websocket
// relay subscribes to it. MQTTChannel mirrors the same messages to a
// broker, and Fanout sends one message to several channels.
//
//	bus := ipc.NewBus(ipc.DefaultReplay)
//	ch := ipc.Fanout(bus, ipc.NewMQTTChannel(client))
//	sup := dataserv.New(dataserv.Config{Channel: ch})
//
//	msgs, cancel := bus.Subscribe(dataserv.OutputNamespace)
//	defer cancel()
package ipc
