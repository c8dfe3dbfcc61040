package event

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer(t *testing.T) {
	debounceWindow := 100 * time.Millisecond
	d := NewDebouncer(debounceWindow, 16)

	event1 := &Event{
		Provider:  "github",
		RepoOwner: "owner",
		RepoName:  "repo",
		Number:    42,
		CommentID: 1001,
	}

	if !d.ShouldProcess(event1) {
		t.Error("First event should be accepted")
	}

	if d.ShouldProcess(event1) {
		t.Error("Redelivered event should be dropped")
	}

	time.Sleep(debounceWindow + 50*time.Millisecond)

	if !d.ShouldProcess(event1) {
		t.Error("Event after debounce window should be accepted")
	}
}

func TestDebouncer_DifferentComments(t *testing.T) {
	d := NewDebouncer(time.Minute, 16)

	event1 := &Event{Provider: "github", RepoOwner: "owner", RepoName: "repo", Number: 42, CommentID: 1}
	event2 := &Event{Provider: "github", RepoOwner: "owner", RepoName: "repo", Number: 42, CommentID: 2}
	event3 := &Event{Provider: "gitlab", RepoOwner: "owner", RepoName: "repo", Number: 42, CommentID: 1}

	for _, e := range []*Event{event1, event2, event3} {
		if !d.ShouldProcess(e) {
			t.Errorf("event %s should be accepted", e.Key())
		}
	}
	if d.Len() != 3 {
		t.Errorf("Len() = %d, want 3", d.Len())
	}
}

func TestDebouncer_SizeBound(t *testing.T) {
	d := NewDebouncer(time.Minute, 2)

	for i := int64(1); i <= 3; i++ {
		d.ShouldProcess(&Event{Provider: "github", CommentID: i})
	}

	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}
	// The oldest entry was evicted, so it is accepted again.
	if !d.ShouldProcess(&Event{Provider: "github", CommentID: 1}) {
		t.Error("evicted event should be accepted")
	}
}

func TestDebouncer_Concurrent(t *testing.T) {
	d := NewDebouncer(time.Minute, 16)
	event := &Event{Provider: "github", RepoOwner: "owner", RepoName: "repo", CommentID: 7}

	var accepted int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.ShouldProcess(event) {
				atomic.AddInt32(&accepted, 1)
			}
		}()
	}
	wg.Wait()

	if accepted != 1 {
		t.Errorf("accepted = %d, want 1", accepted)
	}
}
