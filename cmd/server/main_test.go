package main

import (
	"net"
	"testing"
)

// TestListenAddr_DefaultsToLoopback keeps the single-session server off the network.
func TestListenAddr_DefaultsToLoopback(t *testing.T) {
	t.Setenv("ADVENT_ADDR", "")
	host, port, err := net.SplitHostPort(listenAddr())
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		t.Errorf("default host = %q, want a loopback address", host)
	}
	if port != "3000" {
		t.Errorf("default port = %q, want 3000", port)
	}

	t.Setenv("ADVENT_ADDR", ":8081")
	if got := listenAddr(); got != ":8081" {
		t.Errorf("listenAddr() = %q, want :8081", got)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a.example:3000, ,b.example ")
	if len(got) != 2 || got[0] != "a.example:3000" || got[1] != "b.example" {
		t.Errorf("splitList = %q", got)
	}
	if splitList("") != nil {
		t.Error("empty value should give nil")
	}
}
