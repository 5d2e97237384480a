package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"tincgraph/internal/domain"
)

// maxHandshakeLines bounds how many greeting lines we read before the ACK
const maxHandshakeLines = 8

// Conn is one authenticated control socket session
type Conn struct {
	conn    net.Conn
	reader  *bufio.Reader
	log     Logger
	skipped int
}

// Dial connects to the control socket at addr and authenticates with the identity cookie.
// A zero deadline leaves the connection without an I/O deadline.
func Dial(ctx context.Context, addr string, id Identity, deadline time.Time, logger Logger) (*Conn, error) {
	dialCtx := ctx
	if !deadline.IsZero() {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	var dialer net.Dialer
	nc, err := dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		if dialCtx.Err() != nil {
			// budget or caller ran out while dialing; let the retry policy decide
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return nil, newError(KindConnectionRefused, "dial "+addr, err)
	}

	if !deadline.IsZero() {
		if err := nc.SetDeadline(deadline); err != nil {
			nc.Close()
			return nil, fmt.Errorf("set deadline: %w", err)
		}
	}

	if logger == nil {
		logger = discard{}
	}
	c := &Conn{
		conn:   nc,
		reader: bufio.NewReader(nc),
		log:    logger,
	}

	if err := c.handshake(id.Cookie); err != nil {
		nc.Close()
		return nil, err
	}

	return c, nil
}

// handshake sends the cookie and discards the daemon's greeting up to its ACK line
func (c *Conn) handshake(cookie string) error {
	if err := c.send(handshakeLine(cookie)); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	ack := strconv.Itoa(reqACK)
	for i := 0; i < maxHandshakeLines; i++ {
		line, err := c.readLine()
		if err != nil {
			return fmt.Errorf("handshake: %w", err)
		}
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == ack {
			return nil
		}
	}
	return fmt.Errorf("handshake: no acknowledgement after %d lines", maxHandshakeLines)
}

// Close closes the connection
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Skipped returns how many dump lines were dropped as malformed on this connection
func (c *Conn) Skipped() int {
	return c.skipped
}

// DumpNodes requests the node list
func (c *Conn) DumpNodes() ([]domain.RawNode, error) {
	var nodes []domain.RawNode
	err := c.dump(ctlDumpNodes, func(line string) error {
		node, err := ParseNode(line)
		if err == nil {
			nodes = append(nodes, node)
		}
		return err
	})
	return nodes, err
}

// DumpEdges requests the edge list
func (c *Conn) DumpEdges() ([]domain.RawEdge, error) {
	var edges []domain.RawEdge
	err := c.dump(ctlDumpEdges, func(line string) error {
		edge, err := ParseEdge(line)
		if err == nil {
			edges = append(edges, edge)
		}
		return err
	})
	return edges, err
}

// DumpSubnets requests the subnet list
func (c *Conn) DumpSubnets() ([]domain.RawSubnet, error) {
	var subnets []domain.RawSubnet
	err := c.dump(ctlDumpSubnets, func(line string) error {
		subnet, err := ParseSubnet(line)
		if err == nil {
			subnets = append(subnets, subnet)
		}
		return err
	})
	return subnets, err
}

// dump sends one dump request and feeds every line up to the terminator to handle.
// A line handle rejects is skipped; only I/O failures end the dump.
func (c *Conn) dump(sub int, handle func(line string) error) error {
	name := dumpName(sub)
	if err := c.send(controlLine(sub)); err != nil {
		return fmt.Errorf("dump %s: %w", name, err)
	}

	for {
		line, err := c.readLine()
		if err != nil {
			return fmt.Errorf("dump %s: terminator not seen: %w", name, err)
		}
		if isTerminator(strings.Fields(line), sub) {
			return nil
		}
		if err := handle(line); err != nil {
			c.skipped++
			c.log.Printf("Skipping %s line: %v", name, err)
		}
	}
}

// Purge asks the daemon to drop state about unreachable nodes
func (c *Conn) Purge() error {
	if err := c.send(controlLine(ctlPurge)); err != nil {
		return newError(KindPurgeFailed, "send", err)
	}

	line, err := c.readLine()
	if err != nil {
		return newError(KindPurgeFailed, "read reply", err)
	}

	// reply is "18 8 <result>", result 0 on success
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != strconv.Itoa(reqControl) || fields[1] != strconv.Itoa(ctlPurge) {
		return newError(KindPurgeFailed, fmt.Sprintf("unexpected reply %q", line), nil)
	}
	if fields[2] != "0" {
		return newError(KindPurgeFailed, "daemon returned "+fields[2], nil)
	}
	return nil
}

func (c *Conn) send(line string) error {
	_, err := c.conn.Write([]byte(line))
	return err
}

func (c *Conn) readLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return "", fmt.Errorf("connection closed: %w", err)
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
