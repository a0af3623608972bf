package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/eddielth/airtouch-telemetry/config"
	"github.com/eddielth/airtouch-telemetry/logger"
)

// MQTTSink publishes sample batches as JSON to an MQTT topic. The ingestion
// endpoint authenticates with the telemetry API key, so the sink refuses to
// build without one.
type MQTTSink struct {
	client mqtt.Client
	topic  string
	broker string
}

type mqttBatch struct {
	Samples []Sample `json:"samples"`
}

// NewMQTTSink creates and connects the MQTT export sink.
func NewMQTTSink(cfg config.MQTTSinkConfig, apiKey string) (*MQTTSink, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}

	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address cannot be empty")
	}

	if cfg.Topic == "" {
		cfg.Topic = "telemetry/airtouch/samples"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)

	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("airtouch-telemetry-%d", time.Now().Unix())
	}
	opts.SetClientID(cfg.ClientID)

	username := cfg.Username
	if username == "" {
		username = "airtouch"
	}
	opts.SetUsername(username)
	opts.SetPassword(apiKey)

	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Error("MQTT connection lost: %v", err)
	})

	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		logger.Info("trying to reconnect to MQTT broker...")
	})

	sink := &MQTTSink{
		client: mqtt.NewClient(opts),
		topic:  cfg.Topic,
		broker: cfg.Broker,
	}

	if err := sink.connect(); err != nil {
		return nil, err
	}

	return sink, nil
}

func (s *MQTTSink) connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("connection to MQTT broker timed out")
	}

	if err := token.Error(); err != nil {
		return err
	}

	logger.Info("successfully connected to MQTT broker: %s", s.broker)
	return nil
}

// Export publishes the batch as one JSON message.
func (s *MQTTSink) Export(samples []Sample) error {
	payload, err := json.Marshal(mqttBatch{Samples: samples})
	if err != nil {
		return fmt.Errorf("failed to serialize sample batch: %v", err)
	}

	token := s.client.Publish(s.topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to topic %s timed out", s.topic)
	}

	if err := token.Error(); err != nil {
		return err
	}

	logger.Debug("published %d samples to topic %s", len(samples), s.topic)
	return nil
}

// Close disconnects from the MQTT broker.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	logger.Info("disconnected from MQTT broker")
	return nil
}
