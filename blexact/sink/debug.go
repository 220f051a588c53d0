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

package sink

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/abgp/blemgr/blexact/ctlr"
)

// A logrus hook that forwards log entries as DebugMessage events.  Fire
// runs under the logger's lock, so entries are queued and emitted from the
// hook's own goroutine.  Entries that arrive while the queue is full are
// dropped.
type DebugHook struct {
	sink   ctlr.Sink
	levels []log.Level

	ch     chan ctlr.DebugMessage
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// Forwards entries at the specified level and every more severe one.
func NewDebugHook(s ctlr.Sink, level log.Level, queueSize int) *DebugHook {
	levels := []log.Level{}
	for _, l := range log.AllLevels {
		if l <= level {
			levels = append(levels, l)
		}
	}

	h := &DebugHook{
		sink:   s,
		levels: levels,
		ch:     make(chan ctlr.DebugMessage, queueSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go h.run()
	return h
}

func (h *DebugHook) Levels() []log.Level {
	return h.levels
}

func (h *DebugHook) Fire(entry *log.Entry) error {
	msg := ctlr.DebugMessage{
		Level: entry.Level.String(),
		Text:  entry.Message,
	}

	select {
	case h.ch <- msg:
	default:
	}

	return nil
}

func (h *DebugHook) run() {
	defer close(h.doneCh)

	for {
		select {
		case msg := <-h.ch:
			h.sink.Emit(msg)

		case <-h.stopCh:
			// Flush what is already queued.
			for {
				select {
				case msg := <-h.ch:
					h.sink.Emit(msg)
				default:
					return
				}
			}
		}
	}
}

// Emits any queued entries and stops the forwarding goroutine.  Entries
// fired afterwards are discarded.
func (h *DebugHook) Close() {
	h.once.Do(func() {
		close(h.stopCh)
	})
	<-h.doneCh
}
