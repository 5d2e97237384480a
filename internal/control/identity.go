package control

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Identity is what the daemon publishes about its control socket in the pid file
type Identity struct {
	PID    int
	Cookie string
	Host   string
	Port   int
}

// ReadIdentity reads the daemon's pid file.
// The first line has the form "PID COOKIE HOST port PORT".
func ReadIdentity(path string) (Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return Identity{}, newError(KindIdentityNotFound, "open "+path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return Identity{}, newError(KindIdentityNotFound, "read "+path, err)
		}
		return Identity{}, newError(KindIdentityNotFound, path+" is empty", nil)
	}

	id, err := ParseIdentity(scanner.Text())
	if err != nil {
		return Identity{}, newError(KindIdentityNotFound, path, err)
	}
	return id, nil
}

// ParseIdentity decodes the first line of a pid file
func ParseIdentity(line string) (Identity, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 || fields[3] != "port" {
		return Identity{}, fmt.Errorf("malformed identity line %q", line)
	}

	pid, err := strconv.Atoi(fields[0])
	if err != nil {
		return Identity{}, fmt.Errorf("invalid pid %q: %w", fields[0], err)
	}

	port, err := strconv.Atoi(fields[4])
	if err != nil || port <= 0 || port > 65535 {
		return Identity{}, fmt.Errorf("invalid port %q", fields[4])
	}

	return Identity{
		PID:    pid,
		Cookie: fields[1],
		Host:   fields[2],
		Port:   port,
	}, nil
}
