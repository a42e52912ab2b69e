// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package events

import (
	"sync"
	"sync/atomic"
)

// Queue is a lock-free FIFO event queue on a freelist of nodes,
// safe for one or more senders and a single receiver.
// It must be initialized using [Queue.Init] before use.
type Queue struct {
	head atomic.Pointer[queueNode]
	tail atomic.Pointer[queueNode]
	len  atomic.Uint64
}

// Init initializes the queue.
func (q *Queue) Init() {
	head := &queueNode{}
	q.head.Store(head)
	q.tail.Store(head)
}

type queueNode struct {
	next atomic.Pointer[queueNode]
	v    Event
}

var queueNodePool = sync.Pool{
	New: func() any { return &queueNode{} },
}

// Next removes and returns the next event in the queue,
// nil if the queue is empty.
func (q *Queue) Next() Event {
	var first, last, firstnext *queueNode
	for {
		first = q.head.Load()
		last = q.tail.Load()
		firstnext = first.next.Load()
		if first != q.head.Load() {
			continue
		}
		if first == last {
			if firstnext == nil {
				return nil
			}
			q.tail.CompareAndSwap(last, firstnext)
			continue
		}
		v := firstnext.v
		if q.head.CompareAndSwap(first, firstnext) {
			q.len.Add(^uint64(0))
			first.v = nil
			queueNodePool.Put(first)
			return v
		}
	}
}

// Send adds an event to the end of the queue.
func (q *Queue) Send(ev Event) {
	n := queueNodePool.Get().(*queueNode)
	n.next.Store(nil)
	n.v = ev

	var last, lastnext *queueNode
	for {
		last = q.tail.Load()
		lastnext = last.next.Load()
		if q.tail.Load() != last {
			continue
		}
		if lastnext != nil {
			q.tail.CompareAndSwap(last, lastnext)
			continue
		}
		if last.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(last, n)
			q.len.Add(1)
			return
		}
	}
}

// Drain removes and returns all queued events, in order.
func (q *Queue) Drain() []Event {
	var evs []Event
	for ev := q.Next(); ev != nil; ev = q.Next() {
		evs = append(evs, ev)
	}
	return evs
}

// Len returns the length of the queue.
func (q *Queue) Len() uint64 {
	return q.len.Load()
}
