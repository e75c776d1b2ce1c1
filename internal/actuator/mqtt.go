package actuator

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/sweeney/hvac-controller/internal/logic"
)

// TopicPrefix is the MQTT topic root for HVAC mode commands.
const TopicPrefix = "hvac"

// ModeTopic returns the command topic for a unit, e.g. "hvac/unit-42/mode".
func ModeTopic(unit string) string {
	return TopicPrefix + "/" + unit + "/mode"
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	HVAC ModePayload `json:"hvac"`
}

// ModePayload contains the commanded mode.
type ModePayload struct {
	Timestamp string `json:"timestamp"`
	Mode      string `json:"mode"`
	RunID     string `json:"run_id"`
	Reason    string `json:"reason,omitempty"`
}

// FormatPayload creates the JSON payload for a mode command.
func FormatPayload(mode logic.Mode, ts time.Time, runID, reason string) ([]byte, error) {
	payload := Payload{
		HVAC: ModePayload{
			Timestamp: ts.UTC().Format(time.RFC3339),
			Mode:      string(mode),
			RunID:     runID,
			Reason:    reason,
		},
	}
	return json.Marshal(payload)
}

// MQTTActuator commands a network-attached relay board over MQTT.
// Commands are retained so a relay board that reconnects picks up the last
// mode; the broker-held will message commands IDLE if this process vanishes.
type MQTTActuator struct {
	client paho.Client
	topic  string
	runID  string
	now    func() time.Time
}

// NewMQTTActuator creates an actuator connected to the given broker.
func NewMQTTActuator(broker, unit string) (*MQTTActuator, error) {
	runID := uuid.NewString()
	topic := ModeTopic(unit)

	will, err := FormatPayload(logic.ModeIdle, time.Now(), runID, "CONTROLLER_LOST")
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("hvac-controller-%s-%s", unit, runID[:8])).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(topic, string(will), 1, true)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &MQTTActuator{
		client: client,
		topic:  topic,
		runID:  runID,
		now:    time.Now,
	}, nil
}

// RunID identifies this controller process in every command payload.
func (a *MQTTActuator) RunID() string {
	return a.runID
}

// SetMode publishes a retained mode command.
func (a *MQTTActuator) SetMode(mode logic.Mode) error {
	payload, err := FormatPayload(mode, a.now(), a.runID, "")
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 1 (at-least-once); the relay board treats repeats as no-ops
	token := a.client.Publish(a.topic, 1, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

// IsConnected reports whether the broker connection is up.
func (a *MQTTActuator) IsConnected() bool {
	return a.client.IsConnected()
}

// Close disconnects from the broker.
func (a *MQTTActuator) Close() error {
	a.client.Disconnect(1000) // 1 second timeout
	return nil
}
