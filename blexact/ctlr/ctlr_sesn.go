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

package ctlr

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/abgp/blemgr/blexact/bledefs"
	"github.com/abgp/blemgr/blexact/platform"
)

type scanSesn struct {
	id        string
	gen       uint64
	active    bool
	expiresAt time.Time
	timer     *time.Timer
}

func newScanSesn(gen uint64, period time.Duration) *scanSesn {
	return &scanSesn{
		id:        uuid.New().String(),
		gen:       gen,
		active:    true,
		expiresAt: time.Now().Add(period),
	}
}

func (s *scanSesn) cancelTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// A single GATT connection and the platform handle backing it.
type connSesn struct {
	id       string
	addr     string
	gatt     platform.Gatt
	state    bledefs.ConnState
	released bool
}

func newConnSesn(addr string, gatt platform.Gatt) *connSesn {
	return &connSesn{
		id:    uuid.New().String(),
		addr:  addr,
		gatt:  gatt,
		state: bledefs.CONN_STATE_DISCONNECTED,
	}
}

func (s *connSesn) owns(g platform.Gatt) bool {
	return g != nil && s.gatt == g
}

// Closes the platform handle.  Only the first call has any effect.
func (s *connSesn) release() {
	if s.released {
		return
	}
	s.released = true

	if err := s.gatt.Close(); err != nil {
		log.Debugf("error closing gatt; sesn=%s addr=%s: %s",
			s.id, s.addr, err.Error())
	}
}
