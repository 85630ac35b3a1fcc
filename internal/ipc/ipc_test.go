package ipc_test

import (
	"path/filepath"
	"testing"

	"github.com/Nithin-2002-kumar/echo/internal/ipc"
)

func TestSendReceivesReply(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "echo.sock")

	var gotCmd string
	ln, err := ipc.StartServer(sock, func(msg ipc.ControlMessage) ipc.Reply {
		gotCmd = msg.Cmd
		return ipc.Reply{State: "idle", History: 3}
	})
	if err != nil {
		t.Fatalf("StartServer err: %v", err)
	}
	defer ln.Close()

	reply, err := ipc.Send(sock, "status")
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if gotCmd != "status" {
		t.Fatalf("handler saw cmd %q", gotCmd)
	}
	if reply.State != "idle" || reply.History != 3 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestSendWithoutServer(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "missing.sock")

	if _, err := ipc.Send(sock, "status"); err == nil {
		t.Fatal("expected dial error")
	}
}
