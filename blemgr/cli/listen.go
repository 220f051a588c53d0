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

package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mynewt.apache.org/newt/util"

	"github.com/abgp/blemgr/blemgr/bmutil"
	"github.com/abgp/blemgr/blexact/bledefs"
	"github.com/abgp/blemgr/blexact/ctlr"
	"github.com/abgp/blemgr/blexact/sink"
)

// How long the connect command may wait to be accepted by the controller.
const listenCmdTimeout = 5 * time.Second

func listenRunCmd(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		bmUsage(cmd, util.NewNewtError("Need peer address"))
	}

	events := sink.NewChanSink(64)
	c, err := GetController(events)
	if err != nil {
		bmUsage(nil, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), listenCmdTimeout)
	err = c.Connect(ctx, args[0])
	cancel()
	if err != nil {
		if bmutil.ErrorCausedBy(err, context.DeadlineExceeded) {
			bmUsage(nil, util.NewNewtError("controller unresponsive"))
		}
		bmUsage(nil, util.ChildNewtError(err))
	}

	for e := range events.C {
		switch ev := e.(type) {
		case ctlr.ConnStatusChanged:
			fmt.Fprintf(os.Stderr, "%s: %s\n", ev.Address, ev.State)
			if ev.State == bledefs.CONN_STATE_DISCONNECTED {
				bmUsage(nil, util.FmtNewtError("connection closed: %s",
					ev.Reason))
			}

		case ctlr.DataReceived:
			fmt.Printf("%s %s\n", ev.ChrUuid, hex.EncodeToString(ev.Data))

		case ctlr.ErrorOccurred:
			fmt.Fprintf(os.Stderr, "Error: %s\n", ev.Text)
		}
	}
}

func listenCmd() *cobra.Command {
	listenHelpText := "Connect to the specified peripheral, subscribe to " +
		"its notifying\ncharacteristics, and print each notification " +
		"until interrupted."

	return &cobra.Command{
		Use:     "listen <address>",
		Short:   "Print notifications from a BLE peripheral",
		Long:    listenHelpText,
		Example: "  " + bmutil.ToolInfo.ExeName + " -c myble listen 0C:61:CF:A0:12:34",
		Run:     listenRunCmd,
	}
}
