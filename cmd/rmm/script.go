package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/arm-cca/rmm/internal/rmi"
)

var codeNames = map[string]rmi.Code{
	"VERSION":             rmi.Version,
	"GRANULE_DELEGATE":    rmi.GranuleDelegate,
	"GRANULE_UNDELEGATE":  rmi.GranuleUndelegate,
	"VM_CREATE":           rmi.VMCreate,
	"VM_SWITCH":           rmi.VMSwitch,
	"VM_RESUME":           rmi.VMResume,
	"VM_DESTROY":          rmi.VMDestroy,
	"DATA_CREATE":         rmi.DataCreate,
	"DATA_DESTROY":        rmi.DataDestroy,
	"RTT_INIT_RIPAS":      rmi.RTTInitRipas,
	"RTT_READ_ENTRY":      rmi.RTTReadEntry,
	"RTT_MAP_UNPROTECTED": rmi.RTTMapUnprotected,
}

// loadScript reads a script file of one RMI command per line, each line
// "CODE_NAME a0,a1,a2,a3" (trailing args may be omitted, defaulting to
// 0), into a sequence of rmi.Events. Blank lines and lines starting with
// "#" are skipped.
func loadScript(path string) ([]rmi.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []rmi.Event

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		ev, err := parseScriptLine(line)
		if err != nil {
			return nil, err
		}

		events = append(events, ev)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func parseScriptLine(line string) (rmi.Event, error) {
	fields := strings.Fields(line)

	code, ok := codeNames[fields[0]]
	if !ok {
		return rmi.Event{}, fmt.Errorf("rmm: unknown RMI command %q", fields[0])
	}

	var args [4]uint64

	if len(fields) > 1 {
		parts := strings.Split(fields[1], ",")
		for i, p := range parts {
			if i >= len(args) {
				break
			}

			v, err := strconv.ParseUint(strings.TrimSpace(p), 0, 64)
			if err != nil {
				return rmi.Event{}, fmt.Errorf("rmm: bad argument %q: %w", p, err)
			}

			args[i] = v
		}
	}

	return rmi.Event{Code: code, Args: args}, nil
}
