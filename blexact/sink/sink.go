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

// Package sink contains ready-made destinations for controller events.
package sink

import (
	log "github.com/sirupsen/logrus"

	"github.com/abgp/blemgr/blexact/ctlr"
)

// Delivers events on a buffered channel.  Emit blocks while the buffer is
// full, so the reader must keep draining C.
type ChanSink struct {
	C chan ctlr.Event
}

func NewChanSink(size int) *ChanSink {
	return &ChanSink{
		C: make(chan ctlr.Event, size),
	}
}

func (cs *ChanSink) Emit(e ctlr.Event) {
	cs.C <- e
}

// Logs each event at the configured level.
type LogSink struct {
	Logger *log.Logger
	Level  log.Level
}

func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &LogSink{
		Logger: logger,
		Level:  log.InfoLevel,
	}
}

func (ls *LogSink) Emit(e ctlr.Event) {
	fields := log.Fields{}
	for k, v := range EventToRecord(e) {
		if k != RECORD_SIGNAL_KEY {
			fields[k] = v
		}
	}

	ls.Logger.WithFields(fields).Log(ls.Level, e.Signal())
}

// Fans each event out to several sinks, in order.
type MultiSink []ctlr.Sink

func (ms MultiSink) Emit(e ctlr.Event) {
	for _, s := range ms {
		s.Emit(e)
	}
}
