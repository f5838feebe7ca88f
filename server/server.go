package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/flokli/monprof/mqtt"
	"github.com/flokli/monprof/outputs"
	"github.com/flokli/monprof/profiles"
	log "github.com/sirupsen/logrus"

	"github.com/coreos/go-systemd/daemon"
)

// Server exposes the display layout and the stored profiles over MQTT.
type Server struct {
	MachineID   string
	TopicPrefix string
	mqttClient  pahomqtt.Client

	manager *profiles.Manager
	watcher *outputs.Watcher

	// publishing happens from watcher callbacks and message handlers.
	muPublish sync.Mutex
	ready     bool

	sdNotify func(state string)
}

func New(machineID string, topicPrefix string, manager *profiles.Manager, watcher *outputs.Watcher) *Server {
	return &Server{
		MachineID:   machineID,
		TopicPrefix: topicPrefix,
		manager:     manager,
		watcher:     watcher,
		sdNotify: func(state string) {
			if _, err := daemon.SdNotify(false, state); err != nil {
				log.WithError(err).Debug("unable to notify systemd")
			}
		},
	}
}

// AvailabilityTopic is where "online" / "offline" is published.
func (s *Server) AvailabilityTopic() string {
	return s.topic("available")
}

// Run serves until ctx is cancelled. The client must already be connected.
func (s *Server) Run(ctx context.Context, mqttClient pahomqtt.Client) error {
	s.mqttClient = mqttClient

	l := log.WithFields(log.Fields{
		"machineID":   s.MachineID,
		"topicPrefix": s.TopicPrefix,
	})

	subscriptions := map[string]func(context.Context, []byte) error{
		s.topic("apply"): s.handleApply,
		s.topic("save"):  s.handleSave,
	}
	for topic, handler := range subscriptions {
		if err := mqtt.Subscribe(s.mqttClient, topic, 1, s.messageHandler(ctx, topic, handler)); err != nil {
			return fmt.Errorf("unable to subscribe to %s: %w", topic, err)
		}
	}

	if err := s.publishProfiles(); err != nil {
		l.WithError(err).Warn("unable to publish profiles")
	}

	onChange := func(output outputs.Output) {
		log.WithField("outputName", output.Name).Debug("output changed")
		if err := s.publishLayout(); err != nil {
			log.WithError(err).Warn("unable to publish layout")
		}
	}
	s.watcher.RegisterOutputAdd(onChange)
	s.watcher.RegisterOutputUpdate(onChange)
	s.watcher.RegisterOutputRemove(onChange)

	l.Info("Server started")

	// blocks until ctx is done
	s.watcher.Run(ctx)

	topics := make([]string, 0, len(subscriptions))
	for topic := range subscriptions {
		topics = append(topics, topic)
	}
	if err := mqtt.Unsubscribe(s.mqttClient, topics); err != nil {
		l.WithError(err).Warn("unable to unsubscribe")
	}

	l.Info("server.Run() finished")
	return nil
}

func (s *Server) messageHandler(ctx context.Context, topic string, handler func(context.Context, []byte) error) pahomqtt.MessageHandler {
	return func(c pahomqtt.Client, m pahomqtt.Message) {
		l := log.WithFields(log.Fields{
			"message_id": m.MessageID(),
			"payload":    string(m.Payload()),
			"topic":      topic,
		})
		l.Debug("received message")

		if m.Topic() != topic {
			// This should only happen if the broker sends us unsolicited messages,
			// and/or the client doesn't properly route them to the right callbacks.
			l.Warn("discarded unrelated message")
			return
		}

		if err := handler(ctx, m.Payload()); err != nil {
			l.WithError(err).Error("unable to handle message")
		}
	}
}

// handleApply applies the profile named in the payload.
func (s *Server) handleApply(ctx context.Context, payload []byte) error {
	name := strings.TrimSpace(string(payload))
	if err := s.manager.Apply(ctx, name); err != nil {
		return err
	}
	// publish the resulting layout without waiting for the next tick.
	return s.watcher.Refresh(ctx)
}

// handleSave stores the current layout under the name in the payload.
func (s *Server) handleSave(ctx context.Context, payload []byte) error {
	name := strings.TrimSpace(string(payload))
	if _, err := s.manager.SaveCurrent(ctx, name); err != nil {
		return err
	}
	return s.publishProfiles()
}

// publishLayout publishes the outputs last seen by the watcher.
func (s *Server) publishLayout() error {
	cfg := outputs.Config{Outputs: s.watcher.Outputs()}
	if cfg.Outputs == nil {
		cfg.Outputs = []outputs.Output{}
	}
	layoutJSON, err := json.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("unable to marshal layout json: %w", err)
	}
	return s.publish(s.topic("layout"), layoutJSON)
}

func (s *Server) publishProfiles() error {
	names, err := s.manager.List()
	if err != nil {
		return fmt.Errorf("unable to list profiles: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	profilesJSON, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("unable to marshal profiles json: %w", err)
	}
	return s.publish(s.topic("profiles"), profilesJSON)
}

// publish sends a retained message and keeps systemd informed: the first
// successful publish marks the service as ready, every one feeds the watchdog.
func (s *Server) publish(topic string, payload []byte) error {
	s.muPublish.Lock()
	defer s.muPublish.Unlock()

	if err := mqtt.Publish(s.mqttClient, topic, 1, true, payload); err != nil {
		return fmt.Errorf("unable to publish to %s: %w", topic, err)
	}

	if !s.ready {
		s.ready = true
		s.sdNotify(daemon.SdNotifyReady)
	}
	s.sdNotify("WATCHDOG=1")
	return nil
}

func (s *Server) topic(name string) string {
	return s.TopicPrefix + "/" + s.MachineID + "/" + name
}
