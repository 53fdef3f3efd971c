package gwlog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Warn)
	l.Debugf("hidden")
	l.Infof("also hidden")
	assert.Empty(t, buf.String())

	l.Warnf("shown %d", 1)
	assert.Contains(t, buf.String(), "shown 1")
}

func TestDiscardLoggerNeverPanics(t *testing.T) {
	l := NewDiscard()
	assert.NotPanics(t, func() {
		l.Errorf("boom")
		l.Info("structured")
	})
}

func TestStructuredFieldsAppearInOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Info)
	l.Info("connected", KV("remote", "example.com:1234"), KV("tid", 7), KVErr(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "remote")
	assert.Contains(t, out, "example.com:1234")
	assert.Contains(t, out, "tid")
	assert.Contains(t, out, "boom")
}
