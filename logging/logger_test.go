package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/scoizzle/poly/logging"
)

func TestLogger(t *testing.T) {
	l := logrus.New()
	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	log := logging.Wrap(l)

	for _, tt := range []struct {
		log    func()
		suffix string
	}{
		{func() { log.Error("error") }, "msg=error"},
		{func() { log.Errorf("errorf: %s", "foo") }, `msg="errorf: foo"`},
		{func() { log.Warn("warn") }, "msg=warn"},
		{func() { log.Warnf("warnf: %s", "foo") }, `msg="warnf: foo"`},
		{func() { log.Info("info") }, "msg=info"},
		{func() { log.Infof("infof: %s", "foo") }, `msg="infof: foo"`},
		{func() { log.Debug("debug") }, "msg=debug"},
		{func() { log.Debugf("debugf: %s", "foo") }, `msg="debugf: foo"`},
	} {
		tt.log()
		s := strings.TrimSpace(buf.String())
		buf.Reset()
		if !strings.HasSuffix(s, tt.suffix) {
			t.Fatalf("want suffix %q, got %q", tt.suffix, s)
		}
	}
}

func TestLoggerWithFields(t *testing.T) {
	l := logrus.New()
	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	base := logging.Wrap(l)
	withKey := base.WithFields(map[string]any{"key": "a"})

	withKey.Info("first")
	assert.Contains(t, buf.String(), "key=a")
	buf.Reset()

	base.Info("second")
	assert.NotContains(t, buf.String(), "key=a")
}
