package ui

import "sync/atomic"

type Stats struct {
	TotalBooks   atomic.Int64
	TotalTexts   atomic.Int64
	TotalImages  atomic.Int64
	TotalBytes   atomic.Int64
	TotalSkipped atomic.Int64
}
