// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package bridge_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/bwbridge/internal/agentrpc"
	"github.com/holomush/bwbridge/internal/bridge"
	"github.com/holomush/bwbridge/internal/engine"
	"github.com/holomush/bwbridge/internal/engine/enginetest"
	"github.com/holomush/bwbridge/internal/engine/remote"
	"github.com/holomush/bwbridge/internal/terrain"
	"github.com/holomush/bwbridge/internal/wire"
)

const marineHandle engine.Handle = 5

// engineHost plays a scripted match over the engine link.
type engineHost struct {
	ln     net.Listener
	frames []remote.FrameState
	wg     sync.WaitGroup

	mu     sync.Mutex
	orders []engine.Order
	texts  []string
}

func startEngineHost(frames []remote.FrameState) *engineHost {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	h := &engineHost{ln: ln, frames: frames}
	h.wg.Add(1)
	go h.acceptLoop()
	return h
}

func (h *engineHost) acceptLoop() {
	defer h.wg.Done()
	for {
		conn, err := h.ln.Accept()
		if err != nil {
			return
		}
		h.wg.Add(1)
		go h.serve(conn)
	}
}

func (h *engineHost) serve(conn net.Conn) {
	defer h.wg.Done()
	defer conn.Close()
	next := 0
	for {
		env, err := wire.ReadEnvelope(conn, 0)
		if err != nil {
			return
		}
		var (
			typ  string
			data any
		)
		switch env.Type {
		case remote.MsgHello:
			typ, data = remote.MsgWelcome, remote.Welcome{Engine: "scripted"}
		case remote.MsgTables:
			typ, data = remote.MsgTables, enginetest.SampleTables()
		case remote.MsgUpdate:
			st := remote.FrameState{Frame: int32(next)}
			if next < len(h.frames) {
				st = h.frames[next]
			}
			next++
			typ, data = remote.MsgFrame, st
		case remote.MsgOrder:
			var o engine.Order
			_ = env.Decode(&o)
			h.mu.Lock()
			h.orders = append(h.orders, o)
			h.mu.Unlock()
			typ, data = remote.MsgResult, remote.Result{OK: true}
		case remote.MsgQuery:
			typ, data = remote.MsgResult, remote.Result{OK: false}
		case remote.MsgSendText:
			var text remote.Text
			_ = env.Decode(&text)
			h.mu.Lock()
			h.texts = append(h.texts, text.Text)
			h.mu.Unlock()
			continue
		default:
			continue
		}
		if err := wire.Send(conn, typ, data); err != nil {
			return
		}
	}
}

func (h *engineHost) Orders() []engine.Order {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]engine.Order(nil), h.orders...)
}

func (h *engineHost) Texts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.texts...)
}

func (h *engineHost) Close() {
	_ = h.ln.Close()
	h.wg.Wait()
}

// matchFrames scripts n in-game frames with one friendly marine.
func matchFrames(n int) []remote.FrameState {
	self := enginetest.SelfPlayer
	m := enginetest.SampleMap()
	frames := make([]remote.FrameState, 0, n)
	for i := range n {
		st := remote.FrameState{
			InGame:  true,
			Frame:   int32(i),
			Self:    &self,
			Players: enginetest.SamplePlayers(),
			Units:   []engine.Unit{enginetest.Marine(marineHandle, 40, 40)},
		}
		if i == 0 {
			st.Map = &m
			st.Events = []engine.RawEvent{{Kind: engine.EventMatchStart}}
		}
		frames = append(frames, st)
	}
	return frames
}

// scriptedAgent answers every notification with done. On its first refresh it
// lists units, orders the marine to move and says hello in chat.
type scriptedAgent struct {
	conn net.Conn
	done chan struct{}

	mu            sync.Mutex
	notifications []string
	replies       []agentrpc.Reply
}

func attachAgent(addr string) *scriptedAgent {
	conn, err := net.Dial("tcp", addr)
	Expect(err).NotTo(HaveOccurred())
	Expect(wire.Send(conn, agentrpc.MsgHello, agentrpc.Hello{Protocol: agentrpc.ProtocolVersion, Name: "scripted"})).To(Succeed())

	env, err := wire.ReadEnvelope(conn, 0)
	Expect(err).NotTo(HaveOccurred())
	Expect(env.Type).To(Equal(agentrpc.MsgAck))

	a := &scriptedAgent{conn: conn, done: make(chan struct{})}
	go a.loop()
	return a
}

func (a *scriptedAgent) loop() {
	defer close(a.done)
	commanded := false
	for {
		env, err := wire.ReadEnvelope(a.conn, 0)
		if err != nil {
			return
		}
		a.mu.Lock()
		a.notifications = append(a.notifications, env.Type)
		a.mu.Unlock()

		if env.Type == agentrpc.MsgRefresh && !commanded {
			commanded = true
			a.request(agentrpc.ReqUnits, agentrpc.Empty{})
			unit := int32(marineHandle)
			a.request(agentrpc.ReqCommand, agentrpc.CommandRequest{
				Unit: &unit, Action: "move", Shape: "position", X: 100, Y: 200,
			})
			a.request(agentrpc.ReqSendText, agentrpc.TextRequest{Text: "gl hf"})
		}
		if err := wire.Send(a.conn, agentrpc.MsgDone, nil); err != nil {
			return
		}
	}
}

func (a *scriptedAgent) request(typ string, data any) {
	if err := wire.Send(a.conn, typ, data); err != nil {
		return
	}
	env, err := wire.ReadEnvelope(a.conn, 0)
	if err != nil || env.Type != agentrpc.MsgReply {
		return
	}
	var reply struct {
		agentrpc.Reply
		Result json.RawMessage `json:"result"`
	}
	if err := env.Decode(&reply); err != nil {
		return
	}
	a.mu.Lock()
	a.replies = append(a.replies, reply.Reply)
	a.mu.Unlock()
}

func (a *scriptedAgent) Notifications() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.notifications...)
}

func (a *scriptedAgent) Replies() []agentrpc.Reply {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]agentrpc.Reply(nil), a.replies...)
}

func (a *scriptedAgent) Close() {
	_ = a.conn.Close()
	<-a.done
}

var _ = Describe("Bridge over the engine and agent links", func() {
	var (
		host   *engineHost
		server *agentrpc.Server
		agent  *scriptedAgent
		b      *bridge.Bridge
		cancel context.CancelFunc
		runErr chan error
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		host = startEngineHost(matchFrames(5))

		var err error
		server, err = agentrpc.NewServer("tcp", "127.0.0.1:0",
			agentrpc.WithTurnTimeout(5*time.Second),
			agentrpc.WithLogger(logger),
		)
		Expect(err).NotTo(HaveOccurred())

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		Expect(server.Start(ctx)).To(Succeed())

		agent = attachAgent(server.Addr())
		Eventually(server.Attached).Should(BeTrue())

		cache, err := terrain.NewCache(GinkgoT().TempDir(), logger)
		Expect(err).NotTo(HaveOccurred())

		b = bridge.New(remote.New("tcp", host.ln.Addr().String(), remote.WithLogger(logger)),
			bridge.WithAgent(server),
			bridge.WithLogger(logger),
			bridge.WithTerrainCache(cache),
			bridge.WithRetryInterval(10*time.Millisecond),
		)
		runErr = make(chan error, 1)
		go func() { runErr <- b.Run(ctx) }()
	})

	AfterEach(func() {
		cancel()
		Eventually(runErr).Should(Receive(BeNil()))
		Expect(server.Stop(context.Background())).To(Succeed())
		agent.Close()
		host.Close()
	})

	It("plays a match from start to finish", func() {
		Eventually(agent.Notifications, 5*time.Second).Should(ContainElement(agentrpc.MsgMatchEnd))

		notes := agent.Notifications()
		Expect(notes[0]).To(Equal(agentrpc.MsgConnected))
		Expect(notes[1]).To(Equal(agentrpc.MsgMatchStart))
		Expect(notes).To(ContainElement(agentrpc.MsgRefresh))
		Eventually(func() int64 { return b.Status().Matches }).Should(BeNumerically(">=", 1))
	})

	It("forwards agent commands to the engine", func() {
		Eventually(host.Orders, 5*time.Second).ShouldNot(BeEmpty())

		o := host.Orders()[0]
		Expect(o.Unit).To(Equal(marineHandle))
		Expect(o.Action).To(Equal(engine.ActionMove))
		Expect(o.Position).To(Equal(engine.Position{X: 100, Y: 200}))
		Eventually(host.Texts).Should(ContainElement("gl hf"))
	})

	It("answers every request of the turn", func() {
		Eventually(agent.Replies, 5*time.Second).Should(HaveLen(3))

		for _, r := range agent.Replies() {
			Expect(r.OK).To(BeTrue(), "request %s failed: %s", r.Request, r.Error)
		}
	})

	It("reports the session through its status", func() {
		Eventually(b.Ready).Should(BeTrue())
		Eventually(func() string { return b.Status().SessionID }).ShouldNot(BeEmpty())
		Eventually(func() string { return b.Status().Link }).Should(Equal("connected"))
	})
})
