/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package bridge binds the controller to a scripting engine over a pair of
// byte streams: one command per input line, one encoded record per event.
package bridge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/abgp/blemgr/blexact/bledefs"
	"github.com/abgp/blemgr/blexact/ctlr"
)

const (
	CMD_START_SCAN = "startScan"
	CMD_STOP_SCAN  = "stopScan"
	CMD_CONNECT    = "connect"
	CMD_DISCONNECT = "disconnect"
	CMD_STATUS     = "status"
	CMD_QUIT       = "quit"

	SIGNAL_STATUS  = "status"
	ERR_KIND_USAGE = "usage"
)

type StatusReport struct {
	Scanning bool              `codec:"scanning"`
	Address  string            `codec:"address"`
	State    bledefs.ConnState `codec:"state"`
}

func (r StatusReport) Signal() string { return SIGNAL_STATUS }

type Bridge struct {
	c    *ctlr.Controller
	sink ctlr.Sink
}

// The sink receives usage errors and status reports; it is normally the
// same sink the controller emits to.
func NewBridge(c *ctlr.Controller, sink ctlr.Sink) *Bridge {
	return &Bridge{
		c:    c,
		sink: sink,
	}
}

func (b *Bridge) usage(op string, format string, args ...interface{}) {
	b.sink.Emit(ctlr.ErrorOccurred{
		Op:   op,
		Kind: ERR_KIND_USAGE,
		Text: fmt.Sprintf(format, args...),
	})
}

// Executes a single command line.  Returns false when the line asks the
// bridge to quit.
func (b *Bridge) Exec(ctx context.Context, line string) bool {
	toks := strings.Fields(line)
	if len(toks) == 0 {
		return true
	}

	cmd := toks[0]
	args := toks[1:]

	var err error
	switch cmd {
	case CMD_START_SCAN:
		err = b.c.StartScan(ctx)

	case CMD_STOP_SCAN:
		err = b.c.StopScan(ctx)

	case CMD_CONNECT:
		if len(args) != 1 {
			b.usage(cmd, "usage: connect <address>")
			return true
		}
		err = b.c.Connect(ctx, args[0])

	case CMD_DISCONNECT:
		err = b.c.Disconnect(ctx)

	case CMD_STATUS:
		st := b.c.Status()
		b.sink.Emit(StatusReport{
			Scanning: st.Scanning,
			Address:  st.ConnAddr,
			State:    st.ConnState,
		})

	case CMD_QUIT:
		return false

	default:
		b.usage(cmd, "unknown command: %s", cmd)
	}

	// The controller has already reported command failures to the sink.
	if err != nil {
		log.Debugf("bridge: %s failed: %s", cmd, err.Error())
	}

	return true
}

// Reads commands from r until EOF, a quit command, or context cancellation.
func (b *Bridge) Run(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errCh <- scanner.Err()
	}()

	for {
		select {
		case line := <-lines:
			if !b.Exec(ctx, line) {
				return nil
			}

		case err := <-errCh:
			return err

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
