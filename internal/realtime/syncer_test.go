package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"projecthub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func task(id string) models.Task {
	return models.Task{ID: id, UserID: 1, Title: "task " + id}
}

func records(tasks ...models.Task) []Record {
	out := make([]Record, len(tasks))
	for i, t := range tasks {
		out[i] = t
	}
	return out
}

func ids(list []Record) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.RecordID()
	}
	return out
}

// Fold reconciliation: snapshot [T1,T2,T3] terbaru-dulu, lalu event masuk.
func TestApplyInsertPrepends(t *testing.T) {
	list := records(task("t1"), task("t2"), task("t3"))

	next := apply(list, Event{
		Type: EventInsert, RecordID: "t4", Record: task("t4"),
	})

	assert.Equal(t, []string{"t4", "t1", "t2", "t3"}, ids(next))
	// list asal tidak berubah (fold murni)
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids(list))
}

func TestApplyUpdateReplacesInPlace(t *testing.T) {
	list := records(task("t1"), task("t2"), task("t3"))

	updated := task("t2")
	updated.Title = "renamed"
	next := apply(list, Event{Type: EventUpdate, RecordID: "t2", Record: updated})

	assert.Equal(t, []string{"t1", "t2", "t3"}, ids(next))
	assert.Equal(t, "renamed", next[1].(models.Task).Title)
}

func TestApplyUpdateUnknownIDIsIgnored(t *testing.T) {
	list := records(task("t1"), task("t2"))

	next := apply(list, Event{Type: EventUpdate, RecordID: "t9", Record: task("t9")})

	// tidak ada insert-on-update
	assert.Equal(t, []string{"t1", "t2"}, ids(next))
}

func TestApplyDeleteRemoves(t *testing.T) {
	list := records(task("t1"), task("t2"), task("t3"))

	next := apply(list, Event{Type: EventDelete, RecordID: "t1"})
	assert.Equal(t, []string{"t2", "t3"}, ids(next))

	next = apply(next, Event{Type: EventInsert, RecordID: "t4", Record: task("t4")})
	assert.Equal(t, []string{"t4", "t2", "t3"}, ids(next))

	// delete id yang tidak ada adalah no-op
	next = apply(next, Event{Type: EventDelete, RecordID: "t9"})
	assert.Equal(t, []string{"t4", "t2", "t3"}, ids(next))
}

func TestApplyInsertDeduplicatesByID(t *testing.T) {
	list := records(task("t1"), task("t2"))

	dup := task("t1")
	dup.Title = "fresh copy"
	next := apply(list, Event{Type: EventInsert, RecordID: "t1", Record: dup})

	assert.Equal(t, []string{"t1", "t2"}, ids(next))
	assert.Equal(t, "fresh copy", next[0].(models.Task).Title)
}

func TestSyncerSnapshotThenEvents(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	fetch := func(ctx context.Context, table string, userID int, filters map[string]string) ([]Record, error) {
		return records(task("t1"), task("t2"), task("t3")), nil
	}
	s := NewSyncer(hub, fetch)
	defer s.Close()

	s.Configure(context.Background(), "tasks", 1, nil)

	require.Eventually(t, func() bool { return !s.Loading() }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Err())
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids(s.Data()))

	hub.Publish(Event{Table: "tasks", Type: EventInsert, UserID: 1, RecordID: "t4", Record: task("t4")})
	require.Eventually(t, func() bool {
		return len(s.Data()) == 4
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"t4", "t1", "t2", "t3"}, ids(s.Data()))

	// loading tidak boleh nyala lagi selama event incremental diterapkan
	assert.False(t, s.Loading())

	hub.Publish(Event{Table: "tasks", Type: EventDelete, UserID: 1, RecordID: "t1"})
	require.Eventually(t, func() bool {
		return len(s.Data()) == 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"t4", "t2", "t3"}, ids(s.Data()))
}

// Event yang datang selagi snapshot masih jalan di-buffer,
// lalu di-fold setelah snapshot mendarat.
func TestSyncerBuffersEventsDuringSnapshot(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	release := make(chan struct{})
	fetch := func(ctx context.Context, table string, userID int, filters map[string]string) ([]Record, error) {
		<-release
		return records(task("t1"), task("t2")), nil
	}
	s := NewSyncer(hub, fetch)
	defer s.Close()

	s.Configure(context.Background(), "tasks", 1, nil)
	assert.True(t, s.Loading())

	// event tiba sebelum snapshot selesai
	hub.Publish(Event{Table: "tasks", Type: EventInsert, UserID: 1, RecordID: "t3", Record: task("t3")})
	// insert yang juga ada di snapshot tidak boleh dobel
	hub.Publish(Event{Table: "tasks", Type: EventInsert, UserID: 1, RecordID: "t1", Record: task("t1")})

	// beri waktu event masuk ke buffer dulu, baru lepaskan snapshot
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.Eventually(t, func() bool { return !s.Loading() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"t3", "t1", "t2"}, ids(s.Data()))
}

// Snapshot dari konfigurasi yang sudah digantikan harus dibuang,
// tidak boleh menimpa state konfigurasi baru.
func TestSyncerDiscardsStaleSnapshot(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := make(chan struct{})
	fetch := func(ctx context.Context, table string, userID int, filters map[string]string) ([]Record, error) {
		if len(filters) == 0 {
			// konfigurasi pertama: tahan sampai konfigurasi kedua selesai
			<-first
			return records(task("stale")), nil
		}
		return records(task("fresh")), nil
	}
	s := NewSyncer(hub, fetch)
	defer s.Close()

	s.Configure(context.Background(), "tasks", 1, nil)
	s.Configure(context.Background(), "tasks", 1, map[string]string{"status": "pending"})

	require.Eventually(t, func() bool { return !s.Loading() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"fresh"}, ids(s.Data()))

	// snapshot pertama baru selesai sekarang; hasilnya harus dibuang
	close(first)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"fresh"}, ids(s.Data()))
}

func TestSyncerSnapshotErrorCaptured(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	fetchErr := errors.New("gateway unavailable")
	fetch := func(ctx context.Context, table string, userID int, filters map[string]string) ([]Record, error) {
		return nil, fetchErr
	}
	s := NewSyncer(hub, fetch)
	defer s.Close()

	s.Configure(context.Background(), "tasks", 1, nil)

	require.Eventually(t, func() bool { return !s.Loading() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, fetchErr, s.Err())
	assert.Empty(t, s.Data())
}

func TestSyncerFilterSentinels(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	var got map[string]string
	done := make(chan struct{})
	fetch := func(ctx context.Context, table string, userID int, filters map[string]string) ([]Record, error) {
		got = filters
		close(done)
		return nil, nil
	}
	s := NewSyncer(hub, fetch)
	defer s.Close()

	// "all" dan string kosong berarti field tidak difilter
	s.Configure(context.Background(), "tasks", 1, map[string]string{
		"status":     "pending",
		"priority":   "all",
		"project_id": "",
	})

	<-done
	assert.Equal(t, map[string]string{"status": "pending"}, got)
}

func TestSyncerCloseReleasesSubscription(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	fetch := func(ctx context.Context, table string, userID int, filters map[string]string) ([]Record, error) {
		return nil, nil
	}
	s := NewSyncer(hub, fetch)
	s.Configure(context.Background(), "tasks", 1, nil)
	require.Eventually(t, func() bool { return !s.Loading() }, time.Second, 5*time.Millisecond)

	s.Close()
	// Close kedua harus aman
	s.Close()

	// event setelah Close tidak boleh mengubah state
	hub.Publish(Event{Table: "tasks", Type: EventInsert, UserID: 1, RecordID: "t1", Record: task("t1")})
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, s.Data())
}
