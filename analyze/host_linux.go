// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

//go:build linux

package analyze

import "golang.org/x/sys/unix"

func freeMemory() uint64 {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return fallbackFreeMemory
	}
	return uint64(si.Freeram) * uint64(si.Unit)
}
