package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient, pump'ları çalıştırılmayan bir client oluşturur.
// conn nil'dir — Register/Deregister/broadcast sadece send channel'ına dokunur.
func newTestClient(hub *Hub, connID, userID string) *Client {
	return NewClient(hub, nil, connID, userID, nil)
}

// recvEvent, client'ın send buffer'ından tek bir event okur.
func recvEvent(t *testing.T, c *Client) Event {
	t.Helper()

	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed unexpectedly")
		var event Event
		require.NoError(t, json.Unmarshal(data, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHubRegisterTracksFirstConnection(t *testing.T) {
	hub := NewHub()

	tab1 := newTestClient(hub, "conn-1", "alice")
	tab2 := newTestClient(hub, "conn-2", "alice")

	// İlk bağlantı: offline → online geçişi
	assert.True(t, hub.Register(tab1))
	assert.True(t, hub.IsOnline("alice"))
	assert.Equal(t, 1, hub.ConnectionCount("alice"))

	// İkinci tab: kullanıcı zaten online, ilk sayılmaz
	assert.False(t, hub.Register(tab2))
	assert.Equal(t, 2, hub.ConnectionCount("alice"))
}

func TestHubDeregisterTracksLastConnection(t *testing.T) {
	hub := NewHub()

	tab1 := newTestClient(hub, "conn-1", "alice")
	tab2 := newTestClient(hub, "conn-2", "alice")
	hub.Register(tab1)
	hub.Register(tab2)

	// İlk tab kapandı — kullanıcı hâlâ online
	assert.False(t, hub.Deregister(tab1))
	assert.True(t, hub.IsOnline("alice"))

	// Son tab kapandı — kullanıcı offline
	assert.True(t, hub.Deregister(tab2))
	assert.False(t, hub.IsOnline("alice"))
	assert.Empty(t, hub.OnlineUserIDs())
}

func TestHubDeregisterIsIdempotent(t *testing.T) {
	hub := NewHub()

	client := newTestClient(hub, "conn-1", "alice")
	hub.Register(client)

	assert.True(t, hub.Deregister(client))

	// İkinci çağrı no-op olmalı — send channel iki kez kapatılırsa panic olur
	assert.NotPanics(t, func() {
		assert.False(t, hub.Deregister(client))
	})
}

func TestHubPresenceCallbacksFireOnTransitionsOnly(t *testing.T) {
	hub := NewHub()

	online := make(chan string, 4)
	offline := make(chan string, 4)
	hub.OnUserFirstConnect(func(userID string) { online <- userID })
	hub.OnUserFullyDisconnected(func(userID string) { offline <- userID })

	tab1 := newTestClient(hub, "conn-1", "alice")
	tab2 := newTestClient(hub, "conn-2", "alice")

	hub.Register(tab1)
	hub.Register(tab2)

	// Sadece İLK bağlantı online callback'i tetikler
	select {
	case userID := <-online:
		assert.Equal(t, "alice", userID)
	case <-time.After(time.Second):
		t.Fatal("first-connect callback did not fire")
	}
	select {
	case <-online:
		t.Fatal("first-connect callback fired for a second tab")
	case <-time.After(50 * time.Millisecond):
	}

	hub.Deregister(tab1)

	// Açık tab varken offline callback'i tetiklenmez
	select {
	case <-offline:
		t.Fatal("fully-disconnected callback fired while a tab is still open")
	case <-time.After(50 * time.Millisecond):
	}

	hub.Deregister(tab2)

	select {
	case userID := <-offline:
		assert.Equal(t, "alice", userID)
	case <-time.After(time.Second):
		t.Fatal("fully-disconnected callback did not fire")
	}
}

func TestHubBroadcastToAll(t *testing.T) {
	hub := NewHub()

	aliceTab := newTestClient(hub, "conn-1", "alice")
	bobTab1 := newTestClient(hub, "conn-2", "bob")
	bobTab2 := newTestClient(hub, "conn-3", "bob")
	hub.Register(aliceTab)
	hub.Register(bobTab1)
	hub.Register(bobTab2)

	hub.BroadcastToAll(Event{
		Op:   OpUserStatus,
		Data: StatusData{UserID: "carol", IsOnline: true},
	})

	// Tüm bağlantılar event'i almalı
	for _, c := range []*Client{aliceTab, bobTab1, bobTab2} {
		event := recvEvent(t, c)
		assert.Equal(t, OpUserStatus, event.Op)
		assert.Positive(t, event.Seq)
	}
}

func TestHubBroadcastToUserHitsAllTabsOfTargetOnly(t *testing.T) {
	hub := NewHub()

	aliceTab := newTestClient(hub, "conn-1", "alice")
	bobTab1 := newTestClient(hub, "conn-2", "bob")
	bobTab2 := newTestClient(hub, "conn-3", "bob")
	hub.Register(aliceTab)
	hub.Register(bobTab1)
	hub.Register(bobTab2)

	hub.BroadcastToUser("bob", Event{Op: OpMessagesReadAck, Data: ReadData{ConversationID: "alice:bob"}})

	// Bob'un HER İKİ tab'ı da alır
	for _, c := range []*Client{bobTab1, bobTab2} {
		event := recvEvent(t, c)
		assert.Equal(t, OpMessagesReadAck, event.Op)
	}

	// Alice hiçbir şey almaz
	select {
	case <-aliceTab.send:
		t.Fatal("event leaked to a non-target user")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastToOfflineUserIsNoop(t *testing.T) {
	hub := NewHub()

	assert.NotPanics(t, func() {
		hub.BroadcastToUser("ghost", Event{Op: OpMessageNew})
	})
}

func TestHubEventSequenceIsMonotonic(t *testing.T) {
	hub := NewHub()

	client := newTestClient(hub, "conn-1", "alice")
	hub.Register(client)

	var lastSeq int64
	for i := 0; i < 5; i++ {
		hub.BroadcastToUser("alice", Event{Op: OpHeartbeatAck})
		event := recvEvent(t, client)
		assert.Greater(t, event.Seq, lastSeq)
		lastSeq = event.Seq
	}
}

func TestHubConcurrentRegisterDeregister(t *testing.T) {
	hub := NewHub()

	const tabs = 32
	clients := make([]*Client, tabs)
	for i := range clients {
		clients[i] = newTestClient(hub, fmt.Sprintf("conn-%d", i), "alice")
	}

	// Tüm tab'lar aynı anda bağlanır — "ilk bağlantı" kararı atomik olmalı
	var firstCount int
	var mu sync.Mutex
	hub.OnUserFirstConnect(func(string) {
		mu.Lock()
		firstCount++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			hub.Register(c)
		}(c)
	}
	wg.Wait()

	assert.Equal(t, tabs, hub.ConnectionCount("alice"))

	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			hub.Deregister(c)
		}(c)
	}
	wg.Wait()

	assert.False(t, hub.IsOnline("alice"))
	assert.Zero(t, hub.ConnectionCount("alice"))

	// Callback goroutine ile çağrılıyor — tamamlanmasını bekle
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstCount == 1
	}, time.Second, 10*time.Millisecond)
}

func TestHubShutdownClosesAllClients(t *testing.T) {
	hub := NewHub()

	alice := newTestClient(hub, "conn-1", "alice")
	bob := newTestClient(hub, "conn-2", "bob")
	hub.Register(alice)
	hub.Register(bob)

	hub.Shutdown()

	for _, c := range []*Client{alice, bob} {
		_, ok := <-c.send
		assert.False(t, ok, "send channel should be closed after shutdown")
	}

	// Shutdown sonrası Deregister no-op olmalı (çifte close panic'i yok)
	assert.NotPanics(t, func() {
		hub.Deregister(alice)
	})
}

func TestClientSendEventAfterDeregisterIsNoop(t *testing.T) {
	hub := NewHub()

	client := newTestClient(hub, "conn-1", "alice")
	hub.Register(client)
	require.True(t, hub.Deregister(client))

	// Hub bağlantıyı düşürdükten sonra ReadPump hâlâ event üretiyor olabilir
	// (heartbeat ack, message:error) — kapalı channel'a yazıp süreci
	// çökertmek yerine event sessizce düşmeli
	assert.NotPanics(t, func() {
		client.sendEvent(Event{Op: OpHeartbeatAck})
	})
}

func TestClientSendEventAfterShutdownIsNoop(t *testing.T) {
	hub := NewHub()

	client := newTestClient(hub, "conn-1", "alice")
	hub.Register(client)
	hub.Shutdown()

	assert.NotPanics(t, func() {
		client.sendEvent(Event{Op: OpHeartbeatAck})
	})
}

func TestClientSendEventConcurrentWithDeregister(t *testing.T) {
	// Yavaş client düşürmesi (go Deregister) o client'ın kendi ack'leriyle
	// yarışır — hangi sırada serileşirse serileşsin panic olmamalı.
	// Panic olsaydı test süreci burada çökerdi.
	for i := 0; i < 100; i++ {
		hub := NewHub()
		client := newTestClient(hub, "conn-1", "alice")
		hub.Register(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 10; j++ {
				client.sendEvent(Event{Op: OpHeartbeatAck})
			}
		}()

		hub.Deregister(client)
		<-done
	}
}

func TestHubDeregisterEvictsDisplayName(t *testing.T) {
	hub := NewHub()
	hub.SetUserInfo("alice", "Alice K.")

	tab1 := newTestClient(hub, "conn-1", "alice")
	tab2 := newTestClient(hub, "conn-2", "alice")
	hub.Register(tab1)
	hub.Register(tab2)

	// Açık tab varken isim cache'te kalır — typing broadcast'i kullanıyor
	hub.Deregister(tab1)
	assert.Equal(t, "Alice K.", hub.getDisplayName("alice"))

	// Son bağlantı kapanınca entry de gider — cache bağlı kullanıcı kadar yaşar
	hub.Deregister(tab2)
	assert.Empty(t, hub.getDisplayName("alice"))
}
