package realtime

import (
	"testing"
	"time"

	"projecthub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(table string, userID int, id string) Event {
	return Event{
		Table:    table,
		Type:     EventInsert,
		UserID:   userID,
		RecordID: id,
		Record:   models.Project{ID: id, UserID: userID},
	}
}

func TestHubRoutesByTableAndUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	projectsA := hub.Subscribe("projects", 1)
	projectsB := hub.Subscribe("projects", 2)
	tasksA := hub.Subscribe("tasks", 1)

	hub.Publish(testEvent("projects", 1, "p1"))

	select {
	case ev := <-projectsA.C:
		assert.Equal(t, "p1", ev.RecordID)
	case <-time.After(time.Second):
		t.Fatal("expected event for matching subscription")
	}

	// subscriber user lain dan tabel lain tidak boleh menerima apa pun
	select {
	case ev := <-projectsB.C:
		t.Fatalf("unexpected event for other user: %v", ev)
	case ev := <-tasksA.C:
		t.Fatalf("unexpected event for other table: %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnsubscribeClosesChannelOnce(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sub := hub.Subscribe("tasks", 7)
	hub.Unsubscribe(sub)

	select {
	case _, ok := <-sub.C:
		require.False(t, ok, "channel should be closed after unsubscribe")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}

	// unsubscribe kedua harus aman (no-op)
	hub.Unsubscribe(sub)

	// event setelah unsubscribe tidak boleh sampai ke mana-mana
	hub.Publish(testEvent("tasks", 7, "t1"))
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := hub.Subscribe("projects", 3)
	other := hub.Subscribe("projects", 4)

	// penuhi buffer tanpa pernah membaca, lalu satu event lagi.
	// Publish kembali begitu loop hub menerima event, bukan setelah
	// delivery dicoba, jadi belum boleh ada yang menguras slow.C di sini
	for i := 0; i <= subscriptionBuffer; i++ {
		hub.Publish(testEvent("projects", 3, "p"))
	}

	// loop hub memproses publish berurutan: begitu event untuk user lain
	// sampai, event overflow di atas pasti sudah selesai diproses
	hub.Publish(testEvent("projects", 4, "penanda"))
	select {
	case <-other.C:
	case <-time.After(time.Second):
		t.Fatal("hub did not process published events")
	}

	// subscriber lambat sudah dilepas: channel tertutup setelah buffer habis
	drained := 0
	for range slow.C {
		drained++
	}
	assert.Equal(t, subscriptionBuffer, drained)
}
