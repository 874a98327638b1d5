package streamnotify

import (
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/roomstream/engine/internal/changecache"
)

func startTestServer(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Port: -1, Host: "127.0.0.1"})
	require.NoError(t, err)
	go srv.Start()
	if !srv.ReadyForConnections(2 * time.Second) {
		t.Fatal("embedded nats server never became ready")
	}
	t.Cleanup(srv.Shutdown)
	return srv.ClientURL()
}

func TestPublishAdvancesRemoteCache(t *testing.T) {
	url := startTestServer(t)
	log := logrus.WithField("test", "streamnotify")

	roomCache, err := changecache.New("publisher_room", 1000)
	require.NoError(t, err)
	publisher, err := Connect(url, "test", map[string]*changecache.Cache{"room": roomCache}, log)
	require.NoError(t, err)
	defer publisher.Close()

	subscriberCache, err := changecache.New("subscriber_room", 1000)
	require.NoError(t, err)
	subscriber, err := Connect(url, "test", map[string]*changecache.Cache{"room": subscriberCache}, log)
	require.NoError(t, err)
	defer subscriber.Close()

	require.NoError(t, publisher.Publish("room", "!room:example.org", 10))

	require.Eventually(t, func() bool {
		return !subscriberCache.HasChanged("!room:example.org", 10)
	}, time.Second, 10*time.Millisecond, "subscriber never observed the published change")
}

func TestUnknownCacheNameIsIgnored(t *testing.T) {
	url := startTestServer(t)
	log := logrus.WithField("test", "streamnotify")

	roomCache, err := changecache.New("ignore_room", 1000)
	require.NoError(t, err)
	bus, err := Connect(url, "test", map[string]*changecache.Cache{"room": roomCache}, log)
	require.NoError(t, err)
	defer bus.Close()

	require.NoError(t, bus.Publish("membership", "@alice:example.org", 5))
	time.Sleep(50 * time.Millisecond)
}
