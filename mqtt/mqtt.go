package mqtt

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	timeout = 10 * time.Second
)

// ClientID returns a client id unique to this process.
func ClientID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Connect connects to the broker. If availabilityTopic is set, "online" is
// published there (retained) once connected, and the broker publishes
// "offline" when the connection is lost.
func Connect(serverURL string, clientID string, availabilityTopic string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(serverURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		// handlers publish, which must not wait behind the handler itself.
		SetOrderMatters(false)

	if availabilityTopic != "" {
		opts.SetWill(availabilityTopic, "offline", 1, true)
		opts.SetOnConnectHandler(func(c mqtt.Client) {
			if err := Publish(c, availabilityTopic, 1, true, []byte("online")); err != nil {
				log.WithError(err).Warn("unable to publish availability")
			}
		})
	}

	client := mqtt.NewClient(opts)
	if err := wait(client.Connect(), "connecting to"); err != nil {
		return nil, err
	}
	return client, nil
}

// wait blocks until the token completes or the timeout passes.
func wait(token mqtt.Token, action string) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("timeout %s mqtt", action)
	}
	return token.Error()
}

// Publish publishes a payload to the broker at the given topic.
func Publish(mqttClient mqtt.Client, topic string, qos byte, retained bool, payload []byte) error {
	if err := wait(mqttClient.Publish(topic, qos, retained, payload), "publishing to"); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"topic":    topic,
		"qos":      qos,
		"retained": retained,
		"payload":  string(payload),
	}).Trace("published message")
	return nil
}

func Subscribe(mqttClient mqtt.Client, topic string, qos byte, cb mqtt.MessageHandler) error {
	if err := wait(mqttClient.Subscribe(topic, qos, cb), "subscribing to"); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"topic": topic,
		"qos":   qos,
	}).Debug("subscribed")
	return nil
}

func Unsubscribe(mqttClient mqtt.Client, topics []string) error {
	if err := wait(mqttClient.Unsubscribe(topics...), "unsubscribing from"); err != nil {
		return err
	}
	log.WithField("topics", topics).Debug("unsubscribed")
	return nil
}

// Disconnect publishes "offline" to the availability topic, if any, and
// disconnects.
func Disconnect(mqttClient mqtt.Client, availabilityTopic string) {
	if availabilityTopic != "" {
		if err := Publish(mqttClient, availabilityTopic, 1, true, []byte("offline")); err != nil {
			log.WithError(err).Warn("unable to publish availability")
		}
	}
	mqttClient.Disconnect(250)
}
