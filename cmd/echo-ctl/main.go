package main

import (
	"fmt"
	"os"

	"github.com/Nithin-2002-kumar/echo/internal/ipc"
)

func main() {
	cmd := "status"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	reply, err := ipc.Send(ipc.SocketPath, cmd)
	if err != nil {
		fmt.Println("echo-daemon not running:", err)
		os.Exit(1)
	}
	if reply.Err != "" {
		fmt.Println("error:", reply.Err)
		os.Exit(1)
	}
	fmt.Printf("state=%s history=%d\n", reply.State, reply.History)
}
