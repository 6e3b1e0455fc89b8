package stream

import (
	"fmt"
	"net"
)

func portAddr(port int) string { return fmt.Sprintf(":%d", port) }

func listen(addr string) (net.Listener, error) { return net.Listen("tcp", addr) }

func urlForPort(port int) string {
	return fmt.Sprintf("http://0.0.0.0:%d/stream.ts", port)
}
