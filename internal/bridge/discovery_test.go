package bridge

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nerrad567/halink/internal/alink"
	"github.com/nerrad567/halink/internal/infrastructure/config"
)

func newTestDiscovery(broker *MockBroker) *Discovery {
	gateway := config.GatewayIdentity{
		ProductKey:   "gwpk",
		DeviceName:   "gateway1",
		DeviceSecret: "gw-secret",
	}
	return NewDiscovery(broker, gateway, 1, fixedClock(1700000000000), testLogger())
}

func TestDiscovery_Register(t *testing.T) {
	broker := NewMockBroker()
	d := newTestDiscovery(broker)

	sub := config.SubDeviceConfig{
		ID:           "socket-01",
		Type:         config.DeviceSocket,
		ProductKey:   "spk",
		DeviceName:   "sdn",
		DeviceSecret: "sub-secret",
		EntityPrefix: "sensor.socket_office_",
		Properties:   []string{"voltage"},
	}
	if err := d.Register(&sub); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	published := broker.GetPublished()
	if len(published) != 1 {
		t.Fatalf("published %d messages, want 1", len(published))
	}
	// Announcements go out under the gateway identity, not the
	// sub-device's own topic space.
	if published[0].Topic != "/sys/gwpk/gateway1/thing/topo/add" {
		t.Errorf("topic = %q", published[0].Topic)
	}

	var req alink.TopoAdd
	if err := json.Unmarshal(published[0].Payload, &req); err != nil {
		t.Fatalf("decoding topo/add: %v", err)
	}
	if req.ID == "" {
		t.Error("request id is empty")
	}
	if req.Method != "thing.topo.add" {
		t.Errorf("method = %q", req.Method)
	}
	if req.Version != "1.0" {
		t.Errorf("version = %q", req.Version)
	}
	if len(req.Params) != 1 {
		t.Fatalf("params has %d entries, want 1", len(req.Params))
	}

	p := req.Params[0]
	if p.ProductKey != "spk" || p.DeviceName != "sdn" {
		t.Errorf("identity = %s/%s, want spk/sdn", p.ProductKey, p.DeviceName)
	}
	if p.ClientID != "spk.sdn" {
		t.Errorf("clientId = %q, want spk.sdn", p.ClientID)
	}
	if p.Timestamp != "1700000000000" {
		t.Errorf("timestamp = %q, want 1700000000000", p.Timestamp)
	}
	if p.SignMethod != "hmacSha1" {
		t.Errorf("signMethod = %q", p.SignMethod)
	}
	// Signed with the sub-device secret over the alphabetically ordered
	// params including the timestamp.
	if p.Sign != "33cf192744fefda1ac597d933eb94ff64ed39e4a" {
		t.Errorf("sign = %q", p.Sign)
	}
}

func TestDiscovery_Register_UniqueRequestIDs(t *testing.T) {
	broker := NewMockBroker()
	d := newTestDiscovery(broker)

	sub := socketSub()
	if err := d.Register(&sub); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := d.Register(&sub); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	published := broker.GetPublished()
	if len(published) != 2 {
		t.Fatalf("published %d messages, want 2", len(published))
	}

	var first, second alink.TopoAdd
	if err := json.Unmarshal(published[0].Payload, &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(published[1].Payload, &second); err != nil {
		t.Fatal(err)
	}
	if first.ID == second.ID {
		t.Errorf("request ids are equal: %q", first.ID)
	}
}

func TestDiscovery_RegisterAll(t *testing.T) {
	broker := NewMockBroker()
	d := newTestDiscovery(broker)

	disabled := false
	skipped := envSensorSub()
	skipped.Enabled = &disabled

	subs := []config.SubDeviceConfig{socketSub(), skipped, envSensorSub()}
	if got := d.RegisterAll(subs); got != 2 {
		t.Errorf("RegisterAll() = %d, want 2", got)
	}
	if n := len(broker.GetPublished()); n != 2 {
		t.Errorf("published %d messages, want 2", n)
	}
}

func TestDiscovery_RegisterAll_SurvivesPublishFailure(t *testing.T) {
	broker := NewMockBroker()
	broker.SetPublishErr(errors.New("not connected"))
	d := newTestDiscovery(broker)

	subs := []config.SubDeviceConfig{socketSub(), envSensorSub()}
	if got := d.RegisterAll(subs); got != 0 {
		t.Errorf("RegisterAll() = %d, want 0", got)
	}
}
