// Package mqttingest receives detection events published by devices over MQTT.
package mqttingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/leonardo-io/leonardo/internal/classifier"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/leonardo-io/leonardo/internal/mqttingest")

const (
	// EventTopic matches the topics devices publish events on.
	EventTopic     = "leonardo/devices/+/event"
	topicPrefix    = "leonardo/devices/"
	eventSuffix    = "/event"
	handleTimeout  = 30 * time.Second
	connectTimeout = 10 * time.Second
)

var (
	ErrInvalidTopic   = errors.New("invalid topic")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrUnauthorized   = errors.New("access token does not match the device")
)

// DeviceResolver maps an access token to its device.
type DeviceResolver interface {
	GetDeviceByAccessToken(ctx context.Context, accessToken string) (models.Device, error)
	TouchLastSeen(ctx context.Context, deviceID string, t time.Time) error
}

// Recorder stores a detection event.
type Recorder interface {
	RecordEvent(ctx context.Context, e classifier.Event) (classifier.Result, error)
}

// Payload is the message body devices publish.
type Payload struct {
	AccessToken string     `json:"access_token"`
	Category    string     `json:"detection_type"`
	Confidence  *float64   `json:"confidence"`
	Timestamp   *time.Time `json:"timestamp"`
	MediaRef    *string    `json:"media_ref"`
}

// Ack is published back to the device on its ack topic.
type Ack struct {
	EventID          int64  `json:"event_id,omitempty"`
	LocationMismatch bool   `json:"location_mismatch"`
	Error            string `json:"error,omitempty"`
}

type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

type Subscriber struct {
	logger   *zap.SugaredLogger
	client   mqtt.Client
	devices  DeviceResolver
	recorder Recorder
}

func NewSubscriber(logger *zap.SugaredLogger, opts Options, devices DeviceResolver, recorder Recorder) *Subscriber {
	clientID := opts.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("leonardo-apiserver-%d", time.Now().UnixNano())
	}
	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(clientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetAutoReconnect(true).
		SetOrderMatters(false)

	s := &Subscriber{
		logger:   logger,
		devices:  devices,
		recorder: recorder,
	}
	// subscriptions are lost on reconnect with a clean session
	clientOpts.SetOnConnectHandler(func(c mqtt.Client) {
		if token := c.Subscribe(EventTopic, 1, s.onMessage); token.Wait() && token.Error() != nil {
			s.logger.Errorw("mqtt subscribe failed", "topic", EventTopic, "error", token.Error())
			return
		}
		s.logger.Infow("mqtt subscribed", "topic", EventTopic)
	})
	clientOpts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Warnw("mqtt connection lost", "error", err)
	})
	s.client = mqtt.NewClient(clientOpts)
	return s
}

// Start connects to the broker and disconnects when ctx is done.
func (s *Subscriber) Start(ctx context.Context, wg *sync.WaitGroup) error {
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect: timed out after %s", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	util.GoWithWaitGroup(wg, func() {
		<-ctx.Done()
		s.client.Disconnect(250)
		s.logger.Info("mqtt subscriber stopped")
	})
	return nil
}

func (s *Subscriber) onMessage(c mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	ack := Ack{}
	deviceID, result, err := s.HandleMessage(ctx, msg.Topic(), msg.Payload())
	if err != nil {
		util.WithTrace(ctx, s.logger).Infow("mqtt event rejected", "topic", msg.Topic(), "error", err)
		ack.Error = err.Error()
	} else {
		ack.EventID = result.EventID
		ack.LocationMismatch = result.LocationMismatch
	}
	if deviceID == "" {
		return
	}
	data, err := json.Marshal(ack)
	if err != nil {
		return
	}
	c.Publish(AckTopic(deviceID), 1, false, data)
}

// AckTopic is where the result of an event published by deviceID is sent.
func AckTopic(deviceID string) string {
	return topicPrefix + deviceID + "/ack"
}

// HandleMessage authenticates and records one published event. The device id
// is returned once the topic has been parsed, even when recording fails.
// No source address is known for MQTT events so they are never geolocated.
func (s *Subscriber) HandleMessage(ctx context.Context, topic string, payload []byte) (string, classifier.Result, error) {
	ctx, span := tracer.Start(ctx, "HandleMessage",
		trace.WithAttributes(
			attribute.String("topic", topic),
		))
	defer span.End()

	deviceID, err := ParseTopic(topic)
	if err != nil {
		return "", classifier.Result{}, err
	}

	var p Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return deviceID, classifier.Result{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.Confidence == nil {
		return deviceID, classifier.Result{}, fmt.Errorf("%w: confidence is required", ErrInvalidPayload)
	}

	device, err := s.devices.GetDeviceByAccessToken(ctx, p.AccessToken)
	if err != nil || device.DeviceID != deviceID {
		return deviceID, classifier.Result{}, ErrUnauthorized
	}
	if err := s.devices.TouchLastSeen(ctx, deviceID, time.Now()); err != nil {
		util.WithTrace(ctx, s.logger).Warnw("failed to update last seen", "device_id", deviceID, "error", err)
	}

	event := classifier.Event{
		DeviceID:   deviceID,
		Category:   p.Category,
		Confidence: *p.Confidence,
		MediaRef:   p.MediaRef,
	}
	if p.Timestamp != nil {
		event.DetectedAt = *p.Timestamp
	}
	result, err := s.recorder.RecordEvent(ctx, event)
	if err != nil {
		return deviceID, classifier.Result{}, err
	}
	return deviceID, result, nil
}

// ParseTopic extracts the device id from an event topic.
func ParseTopic(topic string) (string, error) {
	if !strings.HasPrefix(topic, topicPrefix) || !strings.HasSuffix(topic, eventSuffix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	deviceID := strings.TrimSuffix(strings.TrimPrefix(topic, topicPrefix), eventSuffix)
	if deviceID == "" || strings.Contains(deviceID, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	return deviceID, nil
}
