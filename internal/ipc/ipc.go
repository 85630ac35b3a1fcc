package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
)

// SocketPath is where the daemon listens for control commands.
const SocketPath = "/tmp/echo.sock"

// ControlMessage is one command from echo-ctl: "stop", "trigger" or
// "status".
type ControlMessage struct {
	Cmd string `json:"cmd"`
}

// Reply reports the daemon's state back to the client.
type Reply struct {
	State   string `json:"state"`
	History int    `json:"history"`
	Err     string `json:"err,omitempty"`
}

// StartServer listens on the unix socket and calls handler for every
// decoded command, writing its Reply back. Close the returned listener to
// stop accepting.
func StartServer(path string, handler func(ControlMessage) Reply) (net.Listener, error) {
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return ln, nil
}

func handleConn(conn net.Conn, handler func(ControlMessage) Reply) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		return
	}
	reply := handler(msg)
	json.NewEncoder(conn).Encode(reply)
}

// Send delivers one command to a running daemon and returns its reply.
func Send(path, cmd string) (Reply, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(ControlMessage{Cmd: cmd}); err != nil {
		return Reply{}, err
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return Reply{}, err
	}
	return reply, nil
}
