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

package bll

import (
	"time"

	"github.com/abgp/blemgr/blexact/bledefs"
)

type AdapterCfg struct {
	CtlrName string
	HciIdx   int

	ConnTimeout    time.Duration
	ScanDuplicates bool

	// Permissions this process is treated as holding.
	Grants map[bledefs.Permission]bool
}

func NewAdapterCfg() AdapterCfg {
	return AdapterCfg{
		CtlrName:    "default",
		ConnTimeout: 10 * time.Second,
		Grants:      bledefs.AllPermissions(),
	}
}
