package ipc

import (
	"errors"
	"fmt"
)

// Channel is the send side of a notification transport.
type Channel interface {
	Send(namespace string, payload any) error
}

// Publisher publishes JSON to a broker topic. *mqtt.Client satisfies it.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// TopicFunc maps a namespace to a broker topic.
type TopicFunc func(namespace string) string

// MQTTChannel mirrors Send calls to a broker as JSON messages.
type MQTTChannel struct {
	pub   Publisher
	topic TopicFunc
}

// NewMQTTChannel creates a channel publishing each namespace to topic(ns).
func NewMQTTChannel(pub Publisher, topic TopicFunc) *MQTTChannel {
	return &MQTTChannel{pub: pub, topic: topic}
}

// Send publishes payload, not retained.
func (c *MQTTChannel) Send(namespace string, payload any) error {
	if namespace == "" {
		return ErrEmptyNamespace
	}
	if err := c.pub.PublishJSON(c.topic(namespace), payload, false); err != nil {
		return fmt.Errorf("mirroring %s: %w", namespace, err)
	}
	return nil
}

type fanout []Channel

// Fanout sends every message to each non-nil channel in order and joins
// their errors. A failing channel does not stop the others.
func Fanout(channels ...Channel) Channel {
	var list fanout
	for _, c := range channels {
		if c != nil {
			list = append(list, c)
		}
	}
	if len(list) == 1 {
		return list[0]
	}
	return list
}

func (f fanout) Send(namespace string, payload any) error {
	var errs []error
	for _, c := range f {
		if err := c.Send(namespace, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
