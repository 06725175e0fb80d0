// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

//go:build !linux

package analyze

func freeMemory() uint64 {
	return fallbackFreeMemory
}
