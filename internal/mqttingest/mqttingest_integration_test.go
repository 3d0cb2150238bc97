//go:build integration

package mqttingest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

func TestSubscriberWithBroker(t *testing.T) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			// 1.6 accepts anonymous clients without a config file
			Image:        "eclipse-mosquitto:1.6",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})
	endpoint, err := container.PortEndpoint(ctx, "1883/tcp", "tcp")
	require.NoError(t, err)

	s, reg := newTestSubscriber(t)
	s = NewSubscriber(zaptest.NewLogger(t).Sugar(), Options{Broker: endpoint, ClientID: "apiserver-test"}, s.devices, s.recorder)

	runCtx, cancel := context.WithCancel(ctx)
	wg := &sync.WaitGroup{}
	require.NoError(t, s.Start(runCtx, wg))
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	device := mqtt.NewClient(mqtt.NewClientOptions().AddBroker(endpoint).SetClientID("UNIT-0001"))
	token := device.Connect()
	require.True(t, token.WaitTimeout(10*time.Second))
	require.NoError(t, token.Error())
	defer device.Disconnect(100)

	acks := make(chan Ack, 1)
	token = device.Subscribe(AckTopic("UNIT-0001"), 1, func(_ mqtt.Client, msg mqtt.Message) {
		var ack Ack
		if err := json.Unmarshal(msg.Payload(), &ack); err == nil {
			acks <- ack
		}
	})
	require.True(t, token.WaitTimeout(10*time.Second))
	require.NoError(t, token.Error())

	// the server subscribes asynchronously once connected
	require.Eventually(t, func() bool {
		token := device.Publish("leonardo/devices/UNIT-0001/event", 1, false,
			[]byte(`{"access_token":"token-UNIT-0001","detection_type":"bear","confidence":0.9}`))
		token.Wait()
		select {
		case ack := <-acks:
			require.Empty(t, ack.Error)
			require.NotZero(t, ack.EventID)
			return true
		case <-time.After(time.Second):
			return false
		}
	}, 20*time.Second, 100*time.Millisecond)

	d, err := reg.GetDevice(ctx, "UNIT-0001")
	require.NoError(t, err)
	require.NotNil(t, d.LastSeenAt)
	require.Equal(t, models.DeviceStatusActive, d.Status)
}
