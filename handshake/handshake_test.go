package handshake

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
)

// fakeServer reads a client upgrade request off conn and writes back a
// 101 response, returning the parsed request for the test to inspect.
func fakeServer(t *testing.T, conn net.Conn, extraHeaders map[string]string) *http.Request {
	t.Helper()
	req, err := http.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}

	key := req.Header.Get("Sec-WebSocket-Key")
	h := sha1.New()
	io.WriteString(h, key)
	io.WriteString(h, websocketGUID)
	accept := base64.StdEncoding.EncodeToString(h.Sum(nil))

	var b strings.Builder
	b.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	b.WriteString("Sec-WebSocket-Accept: " + accept + "\r\n")
	for k, v := range extraHeaders {
		b.WriteString(k + ": " + v + "\r\n")
	}
	b.WriteString("\r\n")
	if _, err := io.WriteString(conn, b.String()); err != nil {
		t.Fatalf("write response: %v", err)
	}
	return req
}

func TestDial_Success(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan *http.Request, 1)
	go func() { done <- fakeServer(t, server, nil) }()

	result, err := Dial(client, Options{Host: "example.com", Path: "/chat"})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if result.Protocol != "" {
		t.Errorf("Protocol = %q, want empty", result.Protocol)
	}

	req := <-done
	if req.Method != "GET" {
		t.Errorf("Method = %q, want GET", req.Method)
	}
	if req.URL.Path != "/chat" {
		t.Errorf("Path = %q, want /chat", req.URL.Path)
	}
	if req.Header.Get("Sec-WebSocket-Version") != "13" {
		t.Errorf("Sec-WebSocket-Version = %q, want 13", req.Header.Get("Sec-WebSocket-Version"))
	}
}

func TestDial_Subprotocol(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go fakeServer(t, server, map[string]string{"Sec-WebSocket-Protocol": "chat.v2"})

	result, err := Dial(client, Options{Host: "example.com", Protocols: []string{"chat.v2", "chat.v1"}})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if result.Protocol != "chat.v2" {
		t.Errorf("Protocol = %q, want chat.v2", result.Protocol)
	}
}

func TestDial_WrongAccept(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		http.ReadRequest(bufio.NewReader(server))
		io.WriteString(server, "HTTP/1.1 101 Switching Protocols\r\n"+
			"Upgrade: websocket\r\n"+
			"Connection: Upgrade\r\n"+
			"Sec-WebSocket-Accept: not-the-right-value\r\n\r\n")
	}()

	_, err := Dial(client, Options{Host: "example.com"})
	if !errors.Is(err, ErrUpgradeFailed) {
		t.Fatalf("err = %v, want ErrUpgradeFailed", err)
	}
}

func TestDial_NotSwitchingProtocols(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		http.ReadRequest(bufio.NewReader(server))
		io.WriteString(server, "HTTP/1.1 404 Not Found\r\n\r\n")
	}()

	_, err := Dial(client, Options{Host: "example.com"})
	if !errors.Is(err, ErrUpgradeFailed) {
		t.Fatalf("err = %v, want ErrUpgradeFailed", err)
	}
}
