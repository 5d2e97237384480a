package control

import (
	"fmt"
	"strconv"
	"strings"

	"tincgraph/internal/domain"
)

// Minimum field counts, including the leading "18 <sub>" pair
const (
	minNodeFields   = 13 // 18 3 name id host port P cipher digest maclen comp options status
	minEdgeFields   = 9  // 18 4 from to host port P options weight
	minSubnetFields = 4  // 18 5 address owner
)

// nodeStatusOffset is the distance from the "port" keyword to the status field
const nodeStatusOffset = 7

// ParseNode decodes one node dump line
func ParseNode(line string) (domain.RawNode, error) {
	fields, err := splitRecord(line, ctlDumpNodes, minNodeFields)
	if err != nil {
		return domain.RawNode{}, err
	}

	// Older daemons omit the node id column, so anchor on the "port" keyword.
	portAt := -1
	for i := 3; i <= 5 && i < len(fields); i++ {
		if fields[i] == "port" {
			portAt = i
			break
		}
	}
	if portAt < 0 || portAt+nodeStatusOffset >= len(fields) {
		return domain.RawNode{}, malformed(line, "no status field")
	}

	return domain.RawNode{
		Name:   fields[2],
		Status: fields[portAt+nodeStatusOffset],
	}, nil
}

// ParseEdge decodes one edge dump line; the weight is always the last field
func ParseEdge(line string) (domain.RawEdge, error) {
	fields, err := splitRecord(line, ctlDumpEdges, minEdgeFields)
	if err != nil {
		return domain.RawEdge{}, err
	}

	return domain.RawEdge{
		From:   fields[2],
		To:     fields[3],
		Weight: fields[len(fields)-1],
	}, nil
}

// ParseSubnet decodes one subnet dump line
func ParseSubnet(line string) (domain.RawSubnet, error) {
	fields, err := splitRecord(line, ctlDumpSubnets, minSubnetFields)
	if err != nil {
		return domain.RawSubnet{}, err
	}

	return domain.RawSubnet{
		Address: fields[2],
		Owner:   fields[3],
	}, nil
}

// splitRecord splits a dump line and checks its "18 <sub>" prefix and field count
func splitRecord(line string, sub, min int) ([]string, error) {
	fields := strings.Fields(line)
	if len(fields) < min {
		return nil, malformed(line, fmt.Sprintf("%d fields, want at least %d", len(fields), min))
	}
	if fields[0] != strconv.Itoa(reqControl) || fields[1] != strconv.Itoa(sub) {
		return nil, malformed(line, "unexpected request "+fields[0]+" "+fields[1])
	}
	return fields, nil
}

func malformed(line, why string) *Error {
	return newError(KindMalformedRecord, fmt.Sprintf("%s in %q", why, line), nil)
}

// isTerminator reports whether fields close the dump of sub
func isTerminator(fields []string, sub int) bool {
	return len(fields) == 2 &&
		fields[0] == strconv.Itoa(reqControl) &&
		fields[1] == strconv.Itoa(sub)
}
