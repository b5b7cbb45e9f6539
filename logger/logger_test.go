package logger

import (
	"sync"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogsFiltersByLevel(t *testing.T) {
	logBuffer = nil
	InitLogger(logging.DEBUG)

	Info("listing nodes")
	Debugf("probe for node %d failed", 3)
	Error("sync failed")

	errorsOnly := GetLogs(10, "ERROR")
	require.Len(t, errorsOnly, 1)
	assert.Contains(t, errorsOnly[0], "sync failed")

	all := GetLogs(10, "DEBUG")
	assert.Len(t, all, 3)
	// newest first
	assert.Contains(t, all[0], "sync failed")
	assert.Contains(t, all[2], "listing nodes")
}

func TestGetLogsHonorsCount(t *testing.T) {
	logBuffer = nil
	InitLogger(logging.INFO)

	for i := 0; i < 5; i++ {
		Infof("entry %d", i)
	}
	assert.Len(t, GetLogs(2, "INFO"), 2)
}

func TestConcurrentLogging(t *testing.T) {
	logBuffer = nil
	InitLogger(logging.DEBUG)

	// concurrent probe sweeps log from many goroutines at once
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Debugf("liveness probe for node %d failed", n)
			GetLogs(5, "DEBUG")
		}(i)
	}
	wg.Wait()

	assert.Len(t, GetLogs(64, "DEBUG"), 32)
}
