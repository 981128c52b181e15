/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
)

// humanReadableSize formats a byte count with SI prefixes, e.g. 1.5 kB.
func humanReadableSize(bytes int64) string {
	if bytes < 1000 {
		return fmt.Sprintf("%d B", bytes)
	}

	size := float64(bytes) / 1000
	for _, prefix := range "kMGTP" {
		if size < 1000 {
			return fmt.Sprintf("%.1f %cB", size, prefix)
		}
		size /= 1000
	}

	return fmt.Sprintf("%.1f EB", size)
}
