package ptyjob

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/termloom/termloom"
)

// collector gathers job events for the test goroutine to wait on.
type collector struct {
	mu     sync.Mutex
	out    bytes.Buffer
	closed chan struct{}
}

func newCollector() *collector {
	return &collector{closed: make(chan struct{})}
}

func (c *collector) Output(p []byte) {
	c.mu.Lock()
	c.out.Write(p)
	c.mu.Unlock()
}

func (c *collector) Closed() { close(c.closed) }

func (c *collector) text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}

func (c *collector) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-c.closed:
	case <-time.After(10 * time.Second):
		t.Fatal("job never reported Closed")
	}
}

func TestStartCollectsOutputAndCloses(t *testing.T) {
	events := newCollector()
	st := &Starter{}
	job, err := st.Start(termloom.JobSpec{
		Command: []string{"/bin/sh", "-c", "printf marker-out"},
		Rows:    4,
		Cols:    40,
	}, events)
	if err != nil {
		t.Fatal(err)
	}
	defer job.Release()

	events.waitClosed(t)
	if !strings.Contains(events.text(), "marker-out") {
		t.Fatalf("output = %q", events.text())
	}
	if job.Status() != termloom.JobEnded {
		t.Fatalf("status = %v", job.Status())
	}
}

func TestSendReachesChild(t *testing.T) {
	events := newCollector()
	st := &Starter{}
	job, err := st.Start(termloom.JobSpec{
		Command: []string{"/bin/sh", "-c", "read line; printf 'got %s' \"$line\""},
		Rows:    4,
		Cols:    40,
	}, events)
	if err != nil {
		t.Fatal(err)
	}
	defer job.Release()

	if err := job.Send([]byte("ping\r")); err != nil {
		t.Fatal(err)
	}
	events.waitClosed(t)
	if !strings.Contains(events.text(), "got ping") {
		t.Fatalf("output = %q", events.text())
	}
}

func TestStopKillsChild(t *testing.T) {
	events := newCollector()
	st := &Starter{}
	job, err := st.Start(termloom.JobSpec{
		Command: []string{"/bin/sh", "-c", "sleep 60"},
	}, events)
	if err != nil {
		t.Fatal(err)
	}
	job.Stop("kill")
	events.waitClosed(t)
	job.Release()
	if job.Status() != termloom.JobEnded {
		t.Fatalf("status = %v", job.Status())
	}
	if err := job.Send([]byte("x")); err == nil {
		t.Fatal("send to ended job should fail")
	}
}

func TestStartRejectsMissingCommand(t *testing.T) {
	st := &Starter{}
	if _, err := st.Start(termloom.JobSpec{Command: []string{"/no/such/binary"}}, newCollector()); err == nil {
		t.Fatal("missing command should fail to start")
	}
}
