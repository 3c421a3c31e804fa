// ws-bridge exposes a stdio MCP server (normally bas-mcp) over a WebSocket,
// so browser-based controllers can drive BAS without spawning processes
// themselves. Each connection gets its own server subprocess.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type streamMessage struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

func main() {
	addrFlag := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	cmdArgs := flag.Args()
	if len(cmdArgs) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ws-bridge [--addr :8080] <command> [args...]")
		fmt.Fprintln(os.Stderr, "Example: ws-bridge ./bas-mcp --pid 12345")
		os.Exit(1)
	}

	http.HandleFunc("/ws", handleWS(cmdArgs))
	fmt.Printf("WebSocket bridge running on ws://localhost%s/ws\n", *addrFlag)
	log.Fatal(http.ListenAndServe(*addrFlag, nil))
}

func handleWS(cmdArgs []string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("Upgrade error:", err)
			return
		}
		defer conn.Close()

		cmd := exec.Command(cmdArgs[0], cmdArgs[1:]...)

		stdin, err := cmd.StdinPipe()
		if err != nil {
			log.Println("Error getting stdin:", err)
			return
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			log.Println("Error getting stdout:", err)
			return
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			log.Println("Error getting stderr:", err)
			return
		}

		if err := cmd.Start(); err != nil {
			log.Println("Error starting server:", err)
			return
		}
		defer cmd.Process.Kill()

		writeStream := func(kind string, line string) error {
			msg, err := json.Marshal(streamMessage{Type: kind, Data: line})
			if err != nil {
				return err
			}
			return conn.WriteMessage(websocket.TextMessage, msg)
		}

		// Server stdout carries the MCP protocol lines.
		go func() {
			scanner := bufio.NewScanner(stdout)
			scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
			for scanner.Scan() {
				if err := writeStream("stdout", scanner.Text()); err != nil {
					log.Println("WS write error:", err)
					return
				}
			}
		}()

		// Stderr is diagnostics; forwarded so the client can surface it.
		go func() {
			scanner := bufio.NewScanner(stderr)
			for scanner.Scan() {
				if err := writeStream("stderr", scanner.Text()); err != nil {
					log.Println("WS write error:", err)
					return
				}
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.Println("WS read error:", err)
				return
			}
			if _, err := stdin.Write(append(msg, '\n')); err != nil {
				log.Println("Stdin write error:", err)
				return
			}
		}
	}
}
