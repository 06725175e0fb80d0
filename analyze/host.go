// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package analyze

// fallbackFreeMemory is reported when the platform exposes no free-memory figure.
const fallbackFreeMemory uint64 = 2 << 30
