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
	"fmt"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"mynewt.apache.org/newt/util"

	"github.com/abgp/blemgr/blemgr/bmutil"
	"github.com/abgp/blemgr/blemgr/config"
	"github.com/abgp/blemgr/blexact/ctlr"
	"github.com/abgp/blemgr/blexact/platform"
	"github.com/abgp/blemgr/blexact/sink"
)

var globalAdapter platform.Adapter
var globalCtlr *ctlr.Controller

// Set once the tool starts shutting down.
var exiting int32

// Passes events to a command's sink until the tool starts exiting.  The
// goroutine that reads the sink is typically the one running the exit
// path, so the controller's final events must not wait on it.
func exitGuardSink(s ctlr.Sink) ctlr.Sink {
	return ctlr.SinkFunc(func(e ctlr.Event) {
		if atomic.LoadInt32(&exiting) != 0 {
			log.Debugf("exiting; dropping %s", e)
			return
		}
		s.Emit(e)
	})
}

func getConnProfile() (*config.ConnProfile, error) {
	return config.GlobalConnProfileMgr().ResolveConnProfile(
		bmutil.ConnProfile, bmutil.ConnType, bmutil.ConnString,
		bmutil.ConnExtra)
}

// GetController builds and starts the adapter and controller described by
// the selected connection profile.  Every event is logged at debug level
// before it reaches the supplied sink.
func GetController(s ctlr.Sink) (*ctlr.Controller, error) {
	if globalCtlr != nil {
		return globalCtlr, nil
	}

	cp, err := getConnProfile()
	if err != nil {
		return nil, err
	}
	log.Debugf("Using connection profile: %s", cp)

	a, bc, err := config.BuildAdapter(cp)
	if err != nil {
		return nil, err
	}

	if err := a.Start(); err != nil {
		return nil, util.ChildNewtError(err)
	}
	globalAdapter = a

	ls := sink.NewLogSink(nil)
	ls.Level = log.DebugLevel

	sinks := sink.MultiSink{ls}
	if s != nil {
		sinks = append(sinks, exitGuardSink(s))
	}

	c := ctlr.NewController(config.BuildCtlrCfg(bc), a, sinks)
	if err := c.Start(); err != nil {
		return nil, util.ChildNewtError(err)
	}
	globalCtlr = c

	return globalCtlr, nil
}

func GetControllerIfOpen() (*ctlr.Controller, error) {
	if globalCtlr == nil {
		return nil, fmt.Errorf("controller not initialized")
	}

	return globalCtlr, nil
}

func GetAdapterIfOpen() (platform.Adapter, error) {
	if globalAdapter == nil {
		return nil, fmt.Errorf("adapter not initialized")
	}

	return globalAdapter, nil
}

// StopController stops the controller and then the adapter, if they were
// opened.  Events emitted during shutdown are only logged.
func StopController() {
	atomic.StoreInt32(&exiting, 1)

	if c, err := GetControllerIfOpen(); err == nil {
		c.Stop()
	}

	if a, err := GetAdapterIfOpen(); err == nil {
		a.Stop()
	}
}
