/*
	Copyright (c) 2015-2016 Christopher Young
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	uibroadcast.go: Push status updates to connected web clients.
*/

package main

import (
	"io"
	"sync"
	"time"

	"golang.org/x/exp/slices"
	"golang.org/x/net/websocket"
)

type uibroadcaster struct {
	sockets    []*websocket.Conn
	sockets_mu *sync.Mutex
	messages   chan []byte
}

func NewUIBroadcaster() *uibroadcaster {
	ret := &uibroadcaster{
		sockets:    make([]*websocket.Conn, 0),
		sockets_mu: &sync.Mutex{},
		messages:   make(chan []byte, 64),
	}
	go ret.writer()
	return ret
}

// Send queues msg for every socket. It never blocks the tick loop: when the
// queue is full the message is dropped.
func (u *uibroadcaster) Send(msg []byte) {
	select {
	case u.messages <- msg:
	default:
	}
}

func (u *uibroadcaster) AddSocket(sock *websocket.Conn) {
	u.sockets_mu.Lock()
	u.sockets = append(u.sockets, sock)
	u.sockets_mu.Unlock()
}

func (u *uibroadcaster) RemoveSocket(sock *websocket.Conn) {
	u.sockets_mu.Lock()
	u.sockets = slices.DeleteFunc(u.sockets, func(c *websocket.Conn) bool { return c == sock })
	u.sockets_mu.Unlock()
}

func (u *uibroadcaster) Len() int {
	u.sockets_mu.Lock()
	defer u.sockets_mu.Unlock()
	return len(u.sockets)
}

// Handler registers each client and holds the connection open until the
// client goes away.
func (u *uibroadcaster) Handler() websocket.Handler {
	return func(conn *websocket.Conn) {
		u.AddSocket(conn)
		defer u.RemoveSocket(conn)
		io.Copy(io.Discard, conn)
	}
}

func (u *uibroadcaster) writer() {
	for msg := range u.messages {
		// Send to all, forgetting the sockets that fail.
		u.sockets_mu.Lock()
		u.sockets = slices.DeleteFunc(u.sockets, func(sock *websocket.Conn) bool {
			err := sock.SetWriteDeadline(time.Now().Add(time.Second))
			_, err2 := sock.Write(msg)
			return err != nil || err2 != nil
		})
		u.sockets_mu.Unlock()
	}
}
