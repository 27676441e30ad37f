package termloom

import (
	"errors"
	"testing"
)

func TestOpenSessionRegistersAndStartsJob(t *testing.T) {
	host := newFakeHost(ColorCaps{TrueColor: true})
	var eng *fakeEngine
	starter := &fakeStarter{}
	m := testManager(t, host, &eng, starter)

	s, err := m.OpenSession(OpenRequest{Command: []string{"/bin/cat"}, Size: SizeSpec{Rows: 6, Cols: 20}})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	if s.ID == "" || s.Name != "!cat" {
		t.Fatalf("session identity = %q / %q", s.ID, s.Name)
	}
	if rows, cols := s.Size(); rows != 6 || cols != 20 {
		t.Fatalf("size = %dx%d, want the requested 6x20", rows, cols)
	}
	if starter.spec.Rows != 6 || starter.spec.Cols != 20 {
		t.Fatalf("job spec size = %dx%d", starter.spec.Rows, starter.spec.Cols)
	}
	got, err := m.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if found := m.FindByDocument(s.Document()); found != s {
		t.Fatalf("FindByDocument = %v", found)
	}
}

func TestOpenSessionDeduplicatesNames(t *testing.T) {
	host := newFakeHost(ColorCaps{TrueColor: true})
	var eng *fakeEngine
	starter := &fakeStarter{}
	m := testManager(t, host, &eng, starter)

	names := make([]string, 3)
	for i := range names {
		s, err := m.OpenSession(OpenRequest{Command: []string{"bash"}})
		if err != nil {
			t.Fatalf("open session %d: %v", i, err)
		}
		names[i] = s.Name
	}
	want := []string{"!bash", "!bash (1)", "!bash (2)"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestOpenSessionStartFailureTearsDown(t *testing.T) {
	host := newFakeHost(ColorCaps{TrueColor: true})
	var eng *fakeEngine
	starter := &fakeStarter{failWith: errors.New("fork failed")}
	m := testManager(t, host, &eng, starter)

	_, err := m.OpenSession(OpenRequest{Command: []string{"nope"}})
	if err == nil {
		t.Fatalf("expected start failure")
	}
	if len(m.Sessions()) != 0 {
		t.Fatalf("failed session left registered")
	}
	if len(host.docs) != 0 {
		t.Fatalf("failed session left its document behind")
	}
	if !eng.released {
		t.Fatalf("failed session left its engine alive")
	}
}

func TestSessionsKeepsOpeningOrder(t *testing.T) {
	host := newFakeHost(ColorCaps{TrueColor: true})
	var eng *fakeEngine
	starter := &fakeStarter{}
	m := testManager(t, host, &eng, starter)

	a, _ := m.OpenSession(OpenRequest{Name: "a"})
	b, _ := m.OpenSession(OpenRequest{Name: "b"})
	c, _ := m.OpenSession(OpenRequest{Name: "c"})
	if err := m.CloseSession(b.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := m.Sessions()
	if len(got) != 2 || got[0] != a || got[1] != c {
		t.Fatalf("sessions = %v, want [a c]", got)
	}
}

func TestCloseSessionKillsRunningJob(t *testing.T) {
	host := newFakeHost(ColorCaps{TrueColor: true})
	var eng *fakeEngine
	starter := &fakeStarter{}
	m := testManager(t, host, &eng, starter)

	s, err := m.OpenSession(OpenRequest{Command: []string{"cat"}})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	job := starter.job
	if err := m.CloseSession(s.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(job.stops) != 1 || job.stops[0] != "kill" {
		t.Fatalf("job stops = %v, want [kill]", job.stops)
	}
	if !job.released {
		t.Fatalf("job reference not released")
	}
	if !eng.released {
		t.Fatalf("engine not released")
	}
	if _, err := m.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get after close = %v, want ErrSessionNotFound", err)
	}
	if len(host.docs) != 0 {
		t.Fatalf("document survived CloseSession")
	}
}

func TestDocumentDiscardedDestroysSession(t *testing.T) {
	host := newFakeHost(ColorCaps{TrueColor: true})
	var eng *fakeEngine
	starter := &fakeStarter{}
	m := testManager(t, host, &eng, starter)

	s, err := m.OpenSession(OpenRequest{Command: []string{"cat"}})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	var closedID string
	m.SetEventHandler(funcHandler{onClosed: func(id string) { closedID = id }})

	m.DocumentDiscarded(s.Document())
	if closedID != s.ID {
		t.Fatalf("closed handler got %q, want %q", closedID, s.ID)
	}
	if len(m.Sessions()) != 0 {
		t.Fatalf("session survived document discard")
	}
	if len(starter.job.stops) == 0 {
		t.Fatalf("running job not terminated on discard")
	}
}

func TestFinishedEventFiresOnChannelClose(t *testing.T) {
	host := newFakeHost(ColorCaps{TrueColor: true})
	var eng *fakeEngine
	starter := &fakeStarter{}
	m := testManager(t, host, &eng, starter)

	var finished *Session
	m.SetEventHandler(funcHandler{onFinished: func(s *Session) { finished = s }})

	s, err := m.OpenSession(OpenRequest{Command: []string{"cat"}})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	starter.events.Closed()
	if finished != s {
		t.Fatalf("finished handler got %v, want %v", finished, s)
	}
	// Finished sessions stay registered, read-only.
	if got, err := m.Get(s.ID); err != nil || got != s {
		t.Fatalf("finished session dropped from registry: %v, %v", got, err)
	}
}

// funcHandler adapts closures to EventHandler for tests.
type funcHandler struct {
	onOpened   func(*Session)
	onFinished func(*Session)
	onClosed   func(string)
	onError    func(string, error)
}

func (h funcHandler) OnSessionOpened(s *Session) {
	if h.onOpened != nil {
		h.onOpened(s)
	}
}

func (h funcHandler) OnSessionFinished(s *Session) {
	if h.onFinished != nil {
		h.onFinished(s)
	}
}

func (h funcHandler) OnSessionClosed(id string) {
	if h.onClosed != nil {
		h.onClosed(id)
	}
}

func (h funcHandler) OnSessionError(id string, err error) {
	if h.onError != nil {
		h.onError(id, err)
	}
}
