package control

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

const testCookie = "5e9bd8a3c07f41d2a0b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f70819"

// fakeDaemon speaks enough of the tinc control protocol for the client tests
type fakeDaemon struct {
	t        *testing.T
	listener net.Listener

	nodes   []string
	edges   []string
	subnets []string

	purgeReply string
	// hangupBefore closes the first N connections right after the edge request
	hangupBefore int32
	// rejectAll closes every connection right after accepting it
	rejectAll bool

	accepted atomic.Int32
	wg       sync.WaitGroup
}

func newFakeDaemon(t *testing.T) *fakeDaemon {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	d := &fakeDaemon{
		t:          t,
		listener:   l,
		purgeReply: "18 8 0",
	}
	t.Cleanup(func() {
		l.Close()
		d.wg.Wait()
	})
	return d
}

func (d *fakeDaemon) port() int {
	return d.listener.Addr().(*net.TCPAddr).Port
}

func (d *fakeDaemon) start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			conn, err := d.listener.Accept()
			if err != nil {
				return
			}
			n := d.accepted.Add(1)
			if d.rejectAll {
				conn.Close()
				continue
			}
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				defer conn.Close()
				d.serve(conn, n <= d.hangupBefore)
			}()
		}
	}()
}

func (d *fakeDaemon) serve(conn net.Conn, hangup bool) {
	r := bufio.NewReader(conn)
	write := func(lines ...string) {
		for _, line := range lines {
			fmt.Fprintf(conn, "%s\n", line)
		}
	}

	line, err := r.ReadString('\n')
	if err != nil || strings.TrimSpace(line) != "0 ^"+testCookie+" 0" {
		return
	}
	write("0 testnet 17.7", "4 0 4242")

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		switch strings.TrimSpace(line) {
		case "18 3":
			write(d.nodes...)
			write("18 3")
		case "18 4":
			if hangup {
				write(d.edges...)
				return
			}
			write(d.edges...)
			write("18 4")
		case "18 5":
			write(d.subnets...)
			write("18 5")
		case "18 8":
			write(d.purgeReply)
		default:
			return
		}
	}
}

// writePidFile writes a tinc pid file pointing at port
func writePidFile(t *testing.T, port int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tinc.pid")
	content := fmt.Sprintf("4242 %s 127.0.0.1 port %d\n", testCookie, port)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}
	return path
}

func nodeLine(name, status string) string {
	return fmt.Sprintf("18 3 %s 0a1b2c3d4e5f 10.1.0.%d port 655 91 64 4 0 700000c %s %s %s 1 1451 1451 1518 1718000000 -1 0 0 0 0",
		name, len(name), status, name, name)
}

func edgeLine(from, to, weight string) string {
	return fmt.Sprintf("18 4 %s %s 192.0.2.1 port 655 10.0.0.1 port 655 700000c %s", from, to, weight)
}

func subnetLine(addr, owner string) string {
	return fmt.Sprintf("18 5 %s %s", addr, owner)
}
