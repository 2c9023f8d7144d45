package push

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/testutil"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type ChannelSuite struct {
	suite.Suite
	dialer  *fakeDialer
	channel *Channel
	rec     *recorder
}

func TestChannelSuite(t *testing.T) {
	suite.Run(t, new(ChannelSuite))
}

func (s *ChannelSuite) SetupTest() {
	s.dialer = &fakeDialer{}
	s.rec = &recorder{}
	cfg := DefaultConfig()
	cfg.InitialBackoff = 5 * time.Millisecond
	cfg.MaxBackoff = 20 * time.Millisecond
	s.channel = New(cfg, s.dialer, testutil.NopLogger())
	s.channel.OnStateChange(s.rec.onState)
	s.channel.OnEvent(func(ev model.Event) { s.rec.onEvent(ev) })
}

func (s *ChannelSuite) TearDownTest() {
	s.channel.Close()
}

// waitState waits until the channel reached the state and the recorder saw it
func (s *ChannelSuite) waitState(want State) {
	s.Eventually(func() bool {
		if s.channel.State() != want {
			return false
		}
		states := s.rec.states()
		return len(states) > 0 && states[len(states)-1].to == want
	}, waitFor, tick, "expected state %s, got %s", want, s.channel.State())
}

func (s *ChannelSuite) authorize(conn *fakeConn) {
	conn.push(`{"type":"authorization","authorized":true}`)
	s.waitState(Authorized)
}

func (s *ChannelSuite) TestStartsDisconnected() {
	s.Equal(Disconnected, s.channel.State())
	s.Equal(0, s.dialer.dialCount())
}

func (s *ChannelSuite) TestEnableConnects() {
	s.channel.Enable()
	s.waitState(Connected)

	s.Equal([]transition{
		{Disconnected, Connecting},
		{Connecting, Connected},
	}, s.rec.states())
}

func (s *ChannelSuite) TestEnableTwiceDialsOnce() {
	s.channel.Enable()
	s.channel.Enable()
	s.waitState(Connected)

	s.Equal(1, s.dialer.dialCount())
}

func (s *ChannelSuite) TestAuthorizationAck() {
	s.channel.Enable()
	s.waitState(Connected)

	s.authorize(s.dialer.conn(0))

	s.Eventually(func() bool { return len(s.rec.received()) == 1 }, waitFor, tick)
	s.Equal(model.AuthorizationResult{Authorized: true}, s.rec.received()[0])
}

func (s *ChannelSuite) TestRefusedAuthorizationStaysConnected() {
	s.channel.Enable()
	s.waitState(Connected)

	s.dialer.conn(0).push(`{"type":"authorization","authorized":false}`)
	s.Eventually(func() bool { return len(s.rec.received()) == 1 }, waitFor, tick)
	s.Equal(Connected, s.channel.State())
}

func (s *ChannelSuite) TestSendAuthorization() {
	err := s.channel.SendAuthorization(model.Credential{Kind: "bearer", Secret: "tok"})
	s.ErrorIs(err, ErrNotConnected)

	s.channel.Enable()
	s.waitState(Connected)

	err = s.channel.SendAuthorization(model.Credential{Kind: "bearer", Secret: "tok"})
	s.Require().NoError(err)

	msgs := s.dialer.conn(0).messages()
	s.Require().Len(msgs, 1)
	s.JSONEq(`{"type":"authorization","token":"bearer tok"}`, msgs[0])
}

func (s *ChannelSuite) TestSendAuthorizationFromConnectedListener() {
	sent := make(chan error, 4)
	s.channel.OnStateChange(func(from, to State) {
		if to == Connected {
			sent <- s.channel.SendAuthorization(model.Credential{Kind: "bearer", Secret: "tok"})
		}
	})

	s.channel.Enable()
	select {
	case err := <-sent:
		s.NoError(err)
	case <-time.After(waitFor):
		s.Fail("authorization was not sent on connect")
	}
}

func (s *ChannelSuite) TestEventsDelivered() {
	s.channel.Enable()
	s.waitState(Connected)
	conn := s.dialer.conn(0)
	s.authorize(conn)

	conn.push(`{"type":"playerOnline","player":"bob"}`)
	conn.push(`{"type":"gameActive","player":"bob","gameId":"g1"}`)
	conn.push(`{"type":"gameUpdated"}`)

	s.Eventually(func() bool { return len(s.rec.received()) == 4 }, waitFor, tick)
	events := s.rec.received()
	s.Equal(model.PlayerOnline{Player: "bob"}, events[1])
	s.Equal(model.GameActive{Player: "bob", GameID: "g1"}, events[2])
	s.Equal(model.GameUpdated{}, events[3])
}

func (s *ChannelSuite) TestUnknownAndMalformedDropped() {
	s.channel.Enable()
	s.waitState(Connected)
	conn := s.dialer.conn(0)

	conn.push(`{"type":"chatMessage","text":"hi"}`)
	conn.push(`not json`)
	conn.push(`{"type":"playerOnline","player":5}`)
	conn.push(`{"type":"playerOffline","player":"bob"}`)

	s.Eventually(func() bool { return len(s.rec.received()) == 1 }, waitFor, tick)
	s.Equal(model.PlayerOffline{Player: "bob"}, s.rec.received()[0])
	s.Equal(Connected, s.channel.State())
}

func (s *ChannelSuite) TestConnectionLossReconnects() {
	s.channel.Enable()
	s.waitState(Connected)
	first := s.dialer.conn(0)
	s.authorize(first)

	first.Close()

	s.Eventually(func() bool { return s.dialer.connCount() == 2 }, waitFor, tick)
	s.waitState(Connected)

	s.Equal([]transition{
		{Disconnected, Connecting},
		{Connecting, Connected},
		{Connected, Authorized},
		{Authorized, Disconnected},
		{Disconnected, Connecting},
		{Connecting, Connected},
	}, s.rec.states())
}

func (s *ChannelSuite) TestDialFailureRetries() {
	s.dialer.failNext(errors.New("refused"), errors.New("refused"))

	s.channel.Enable()
	s.waitState(Connected)

	s.Equal(3, s.dialer.dialCount())
	states := s.rec.states()
	s.Equal(transition{Connecting, Disconnected}, states[1])
	s.Equal(transition{Connecting, Connected}, states[len(states)-1])
}

func (s *ChannelSuite) TestDisableStopsReconnecting() {
	s.channel.Enable()
	s.waitState(Connected)
	conn := s.dialer.conn(0)
	s.authorize(conn)

	s.channel.Disable()

	// Disable returns after the transition has been delivered
	s.Equal(Disconnected, s.channel.State())
	states := s.rec.states()
	s.Equal(transition{Authorized, Disconnected}, states[len(states)-1])
	s.True(conn.isClosed())

	time.Sleep(50 * time.Millisecond)
	s.Equal(1, s.dialer.dialCount())
	s.Equal(Disconnected, s.channel.State())
}

func (s *ChannelSuite) TestDisableDuringRetryWait() {
	s.dialer.failNext(errors.New("refused"))
	cfg := DefaultConfig()
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour
	ch := New(cfg, s.dialer, testutil.NopLogger())
	defer ch.Close()

	ch.Enable()
	s.Eventually(func() bool { return s.dialer.dialCount() == 1 && ch.State() == Disconnected }, waitFor, tick)

	ch.Disable()
	ch.Enable()
	s.Eventually(func() bool { return ch.State() == Connected }, waitFor, tick)
	s.Equal(2, s.dialer.dialCount())
}

func (s *ChannelSuite) TestUnsubscribe() {
	calls := 0
	unsubscribe := s.channel.OnStateChange(func(from, to State) { calls++ })
	unsubscribe()
	unsubscribe()

	s.channel.Enable()
	s.waitState(Connected)
	s.Equal(0, calls)
}

func (s *ChannelSuite) TestCloseDisconnects() {
	s.channel.Enable()
	s.waitState(Connected)
	conn := s.dialer.conn(0)

	s.channel.Close()
	s.Equal(Disconnected, s.channel.State())
	s.True(conn.isClosed())

	// Commands after close return immediately
	s.channel.Enable()
	s.channel.Disable()
	s.Equal(Disconnected, s.channel.State())
}
