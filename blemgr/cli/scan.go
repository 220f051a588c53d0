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
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"

	"mynewt.apache.org/newt/util"

	"github.com/abgp/blemgr/blemgr/bmutil"
	"github.com/abgp/blemgr/blexact/bmxutil"
	"github.com/abgp/blemgr/blexact/ctlr"
	"github.com/abgp/blemgr/blexact/sink"
)

// Extra time allowed for the controller to report the end of a scan.
const scanStopGrace = 2 * time.Second

func scanRunCmd(cmd *cobra.Command, args []string) {
	if len(args) != 0 {
		bmUsage(cmd, util.NewNewtError("scan takes no arguments"))
	}

	dur, err := cmd.Flags().GetDuration("duration")
	if err != nil {
		bmUsage(cmd, util.ChildNewtError(err))
	}
	if dur > 0 {
		bmutil.ScanPeriod = dur.Seconds()
	}

	events := sink.NewChanSink(64)
	c, err := GetController(events)
	if err != nil {
		bmUsage(nil, err)
	}

	if err := c.StartScan(context.Background()); err != nil {
		bmUsage(nil, util.ChildNewtError(err))
	}

	start := time.Now()
	window := time.Until(c.Status().ScanExpiresAt)
	if window <= 0 {
		window = time.Millisecond
	}

	bar := pb.New(int(window / time.Millisecond))
	bar.Output = os.Stderr
	bar.ShowCounters = false
	bar.ShowSpeed = false
	bar.Prefix("scanning ")
	bar.Start()

	tmr := time.NewTimer(window + scanStopGrace)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	seen := map[string]bool{}
	for {
		select {
		case e := <-events.C:
			switch ev := e.(type) {
			case ctlr.DeviceFound:
				if !seen[ev.Address] {
					seen[ev.Address] = true
					fmt.Printf("%s  %s\n", ev.Address, ev.Name)
				}

			case ctlr.ErrorOccurred:
				fmt.Fprintf(os.Stderr, "Error: %s\n", ev.Text)

			case ctlr.ScanStopped:
				bmxutil.StopAndDrainTimer(tmr)
				bar.Set(int(bar.Total))
				bar.Finish()
				fmt.Printf("scan stopped (%s); %d device(s) found\n",
					ev.Reason, len(seen))
				return
			}

		case <-ticker.C:
			bar.Set(int(time.Since(start) / time.Millisecond))

		case <-tmr.C:
			bar.Finish()
			bmUsage(nil, util.NewNewtError("scan did not stop"))
		}
	}
}

func scanCmd() *cobra.Command {
	scanHelpText := "Scan for BLE peripherals and print each one found.  " +
		"The scan ends\nafter the scan window or when interrupted."

	cmd := &cobra.Command{
		Use:     "scan [-d duration]",
		Short:   "Scan for BLE peripherals",
		Long:    scanHelpText,
		Example: "  " + bmutil.ToolInfo.ExeName + " -c myble scan -d 5s",
		Run:     scanRunCmd,
	}

	cmd.Flags().DurationP("duration", "d", 0,
		"length of the scan window; overrides the connection's setting")

	return cmd
}
