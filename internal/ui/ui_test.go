package ui

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, false)

	log.Debugf("hidden %d\n", 1)
	log.Infof("books: %d\n", 3)
	log.Warnf("slow\n")
	log.Errorf("boom\n")

	assert.Equal(t, "[INFO] books: 3\n[WARN] slow\n[ERROR] boom\n", buf.String())

	buf.Reset()
	log.Debug = true
	log.Debugf("shown\n")
	assert.Equal(t, "[DEBUG] shown\n", buf.String())
}

func TestProgressCloseAfterEarlyStop(t *testing.T) {
	pm := NewProgressManager(io.Discard)
	stats := &Stats{}
	h := pm.Register("Books", stats)

	h.SetTotal(5)
	h.Increment()
	stats.TotalBytes.Add(2048)

	h.MarkDone()
	h.Increment()
	pm.Close()
}
