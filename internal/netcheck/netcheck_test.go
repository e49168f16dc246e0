package netcheck

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStatic(t *testing.T) {
	if !Static(true).Online(context.Background()) {
		t.Error("Static(true) reported offline")
	}
	if Static(false).Online(context.Background()) {
		t.Error("Static(false) reported online")
	}
}

func TestProbe_ReachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	p, err := NewProbe(srv.URL+"/process", time.Second)
	if err != nil {
		t.Fatalf("NewProbe: %v", err)
	}
	if !p.Online(context.Background()) {
		t.Error("probe against live server reported offline")
	}
}

func TestProbe_ClosedPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	p, err := NewProbe("http://"+addr, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("NewProbe: %v", err)
	}
	if p.Online(context.Background()) {
		t.Error("probe against closed port reported online")
	}
}

func TestNewProbe_DefaultPorts(t *testing.T) {
	cases := map[string]string{
		"http://example.com/process":  "example.com:80",
		"https://example.com/process": "example.com:443",
		"http://example.com:8080":     "example.com:8080",
	}
	for in, want := range cases {
		p, err := NewProbe(in, time.Second)
		if err != nil {
			t.Fatalf("NewProbe(%q): %v", in, err)
		}
		if p.Addr != want {
			t.Errorf("NewProbe(%q).Addr = %q, want %q", in, p.Addr, want)
		}
	}
}

func TestNewProbe_NoHost(t *testing.T) {
	if _, err := NewProbe("/process", time.Second); err == nil {
		t.Error("expected error for URL without host")
	}
}

func TestFromMode(t *testing.T) {
	c, err := FromMode("offline", "", 0)
	if err != nil || c.Online(context.Background()) {
		t.Errorf("offline mode: %v %v", c, err)
	}
	c, err = FromMode("ONLINE", "", 0)
	if err != nil || !c.Online(context.Background()) {
		t.Errorf("online mode: %v %v", c, err)
	}
	c, err = FromMode("auto", "http://localhost:1", time.Second)
	if err != nil {
		t.Fatalf("auto mode: %v", err)
	}
	if _, ok := c.(*Probe); !ok {
		t.Errorf("auto mode returned %T, want *Probe", c)
	}
	if _, err := FromMode("sometimes", "", 0); err == nil {
		t.Error("expected error for unknown mode")
	}
}
