package logger

import (
	"bytes"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture redirects output for one test and restores the defaults after.
func capture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestGatedLevels(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"debug", func() { Debug("embedded %d/%d chunks", 32, 64) }, "[DEBUG] embedded 32/64 chunks\n"},
		{"info", func() { Info("index %s ready", "db_size_250_overlap_150") }, "[INFO] index db_size_250_overlap_150 ready\n"},
		{"warn", func() { Warn("skipping %s", "size=10 overlap=50") }, "[WARN] skipping size=10 overlap=50\n"},
		{"section", func() { Section("Evaluation Sweep") }, "\n=== Evaluation Sweep ===\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, true)
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})

		t.Run(tt.name+" quiet", func(t *testing.T) {
			buf := capture(t, false)
			tt.log()
			assert.Empty(t, buf.String())
		})
	}
}

func TestError_AlwaysWritten(t *testing.T) {
	buf := capture(t, false)
	Error("configuration error: %s", "EMBEDDING_MODEL_NAME is required")
	assert.Equal(t, "[ERROR] configuration error: EMBEDDING_MODEL_NAME is required\n", buf.String())
}

func TestProgress_AlwaysWritten(t *testing.T) {
	buf := capture(t, false)
	Progress("[%d/%d] building %s", 3, 40, "db_size_25_overlap_3")
	assert.Equal(t, "[3/40] building db_size_25_overlap_3\n", buf.String())
}

func TestPercentInArgsIsNotReinterpreted(t *testing.T) {
	buf := capture(t, true)
	Info("hit rate %s", "80%")
	assert.Equal(t, "[INFO] hit rate 80%\n", buf.String())
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(true)
			Debug("concurrent %d", i)
			Progress("concurrent %d", i)
			IsVerbose()
			SetVerbose(false)
		}()
	}
	wg.Wait()
}

func TestCaptureStandardLog(t *testing.T) {
	CaptureStandardLog()
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	})

	t.Run("quiet", func(t *testing.T) {
		buf := capture(t, false)
		log.Printf("[WARN] created a chunk with size of %d, which is longer then the specified %d", 12, 10)
		assert.Empty(t, buf.String())
	})

	t.Run("verbose", func(t *testing.T) {
		buf := capture(t, true)
		log.Printf("first\nsecond")
		assert.Equal(t, "[DEBUG] first\n[DEBUG] second\n", buf.String())
	})
}
