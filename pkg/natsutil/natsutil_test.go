package natsutil

import (
	"testing"

	"github.com/nats-io/nats.go"
)

func TestHeaderCarrier_SetGet(t *testing.T) {
	msg := &nats.Msg{}
	c := (*natsHeaderCarrier)(msg)

	if c.Get("traceparent") != "" {
		t.Error("expected empty value before Set")
	}
	if c.Keys() != nil {
		t.Error("expected nil keys before Set")
	}

	c.Set("traceparent", "00-abc-def-01")
	if got := c.Get("traceparent"); got != "00-abc-def-01" {
		t.Errorf("unexpected value %q", got)
	}

	keys := c.Keys()
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %v", keys)
	}
	if msg.Header.Get("traceparent") == "" {
		t.Error("carrier must write through to the message header")
	}
}

func TestHeaderCarrier_Overwrite(t *testing.T) {
	msg := &nats.Msg{}
	c := (*natsHeaderCarrier)(msg)
	c.Set("k", "v1")
	c.Set("k", "v2")
	if got := c.Get("k"); got != "v2" {
		t.Errorf("expected last write to win, got %q", got)
	}
}
