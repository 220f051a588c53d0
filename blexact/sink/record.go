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
	"fmt"
	"io"
	"sync"

	"github.com/fatih/structs"
	log "github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"

	"github.com/abgp/blemgr/blexact/ctlr"
)

const RECORD_SIGNAL_KEY = "signal"

type RecordFormat int

const (
	RECORD_FMT_JSON RecordFormat = iota
	RECORD_FMT_CBOR
)

var RecordFormatStringMap = map[RecordFormat]string{
	RECORD_FMT_JSON: "json",
	RECORD_FMT_CBOR: "cbor",
}

func RecordFormatFromString(s string) (RecordFormat, error) {
	for f, name := range RecordFormatStringMap {
		if s == name {
			return f, nil
		}
	}

	return RecordFormat(0), fmt.Errorf("Invalid record format: %s", s)
}

// Converts an event to the flat record handed to the scripting layer: the
// event's fields keyed by their "codec" tags, plus the signal name.
func EventToRecord(e ctlr.Event) map[string]interface{} {
	s := structs.New(e)
	s.TagName = "codec"

	m := s.Map()
	for k, v := range m {
		if str, ok := v.(fmt.Stringer); ok {
			m[k] = str.String()
		}
	}
	m[RECORD_SIGNAL_KEY] = e.Signal()

	return m
}

// Writes each event as an encoded record.  JSON records are newline
// terminated; CBOR records are written back to back.
type RecordSink struct {
	w      io.Writer
	format RecordFormat
	h      codec.Handle
	mtx    sync.Mutex
}

func NewRecordSink(w io.Writer, format RecordFormat) *RecordSink {
	var h codec.Handle
	switch format {
	case RECORD_FMT_CBOR:
		ch := new(codec.CborHandle)
		ch.Canonical = true
		h = ch
	default:
		jh := new(codec.JsonHandle)
		jh.Canonical = true
		h = jh
	}

	return &RecordSink{
		w:      w,
		format: format,
		h:      h,
	}
}

func EncodeRecord(h codec.Handle, e ctlr.Event) ([]byte, error) {
	b := []byte{}
	enc := codec.NewEncoderBytes(&b, h)
	if err := enc.Encode(EventToRecord(e)); err != nil {
		return nil, err
	}

	return b, nil
}

func (rs *RecordSink) Emit(e ctlr.Event) {
	b, err := EncodeRecord(rs.h, e)
	if err != nil {
		log.Errorf("failed to encode %s record: %s", e.Signal(), err.Error())
		return
	}

	if rs.format == RECORD_FMT_JSON {
		b = append(b, '\n')
	}

	rs.mtx.Lock()
	defer rs.mtx.Unlock()

	if _, err := rs.w.Write(b); err != nil {
		log.Errorf("failed to write %s record: %s", e.Signal(), err.Error())
	}
}
