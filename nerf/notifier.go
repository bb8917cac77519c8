package nerf

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// newMQTTClient is swapped out in tests
var newMQTTClient = mqtt.NewClient

// publishClient is the part of mqtt.Client the notifier needs
type publishClient interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// ConversionEvent is published once a manifest has been written
type ConversionEvent struct {
	Dataset    string  `json:"dataset"`
	Output     string  `json:"output"`
	Frames     int     `json:"frames"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Focal      float64 `json:"focal"`
	PathLength float64 `json:"pathLength"`
	Refined    bool    `json:"refined"`
	Timestamp  int64   `json:"timestamp"`
}

// Notifier publishes conversion events to MQTT
type Notifier struct {
	client        publishClient
	publishPrefix string
	qos           byte
	retain        bool
	timeout       time.Duration
}

// NewNotifier wraps a connected client. An empty prefix uses "hyper2nerf".
func NewNotifier(client publishClient, prefix string) *Notifier {
	if prefix == "" {
		prefix = "hyper2nerf"
	}
	return &Notifier{
		client:        client,
		publishPrefix: prefix,
		qos:           1, // at least once, a one-shot run may exit right after
		retain:        false,
		timeout:       5 * time.Second,
	}
}

// Topic returns the topic conversion events are published to
func (n *Notifier) Topic() string {
	return fmt.Sprintf("%s/converted", n.publishPrefix)
}

// PublishConversion publishes a single event and waits for the broker ack
func (n *Notifier) PublishConversion(ev ConversionEvent) error {
	if n.client == nil || !n.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling conversion event: %w", err)
	}

	topic := n.Topic()
	token := n.client.Publish(topic, n.qos, n.retain, payload)
	if !token.WaitTimeout(n.timeout) {
		return fmt.Errorf("publishing to %s: timed out after %s", topic, n.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}

	log.Printf("Published conversion event to %s (%d frames)", topic, ev.Frames)
	return nil
}

// ConnectNotifier dials the configured broker. With no broker configured it
// returns a nil notifier and no error. The returned close func disconnects.
func ConnectNotifier(cfg NotifyConfig) (*Notifier, func(), error) {
	if cfg.Broker == "" {
		return nil, func() {}, nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "hyper2nerf"
	}
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetCleanSession(true)

	client := newMQTTClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, func() {}, fmt.Errorf("connecting to %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, func() {}, fmt.Errorf("connecting to %s: %w", cfg.Broker, err)
	}

	log.Printf("Connected to MQTT broker %s", cfg.Broker)
	return NewNotifier(client, cfg.PublishPrefix), func() { client.Disconnect(250) }, nil
}
