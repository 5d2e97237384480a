package control

import "fmt"

// Request numbers of the tinc meta protocol used on the control socket
const (
	reqID      = 0
	reqACK     = 4
	reqControl = 18
)

// Control subrequests
const (
	ctlDumpNodes   = 3
	ctlDumpEdges   = 4
	ctlDumpSubnets = 5
	ctlPurge       = 8
)

// handshakeLine authenticates with the cookie; the trailing 0 is the control protocol version
func handshakeLine(cookie string) string {
	return fmt.Sprintf("%d ^%s %d\n", reqID, cookie, 0)
}

func controlLine(sub int) string {
	return fmt.Sprintf("%d %d\n", reqControl, sub)
}

func dumpName(sub int) string {
	switch sub {
	case ctlDumpNodes:
		return "nodes"
	case ctlDumpEdges:
		return "edges"
	case ctlDumpSubnets:
		return "subnets"
	default:
		return fmt.Sprintf("dump %d", sub)
	}
}
