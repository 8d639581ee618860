package mqtt

import "fmt"

const (
	// TopicPrefix is the root of every driveshare topic.
	TopicPrefix = "driveshare"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = TopicPrefix + "/system"

	// TopicPrefixIPC is the base for mirrored IPC namespaces.
	TopicPrefixIPC = TopicPrefix + "/ipc"
)

// Topics provides builders for driveshare MQTT topics.
type Topics struct{}

// SystemStatus returns the retained online/offline status topic.
//
// Example: driveshare/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// IPC returns the topic an IPC namespace is mirrored to.
//
// Example: driveshare/ipc/process_output
func (Topics) IPC(namespace string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixIPC, namespace)
}

// AllIPC matches every mirrored IPC namespace.
//
// Pattern: driveshare/ipc/#
func (Topics) AllIPC() string {
	return TopicPrefixIPC + "/#"
}
