package client

import (
	"sync"
)

// Box holds the latest of something, and lets readers wait for a newer one.
type Box struct {
	l *sync.Mutex
	c *sync.Cond
	v interface{}
}

func NewBox() *Box {
	l := &sync.Mutex{}
	c := sync.NewCond(l)
	return &Box{l, c, nil}
}

func (b *Box) Put(v interface{}) {
	b.l.Lock()
	defer b.l.Unlock()
	b.v = v
	b.c.Broadcast()
}

func (b *Box) Get() interface{} {
	b.l.Lock()
	defer b.l.Unlock()
	return b.v
}

// Wait blocks until the box holds something other than seen.
func (b *Box) Wait(seen interface{}) interface{} {
	b.l.Lock()
	defer b.l.Unlock()
	for b.v == seen {
		b.c.Wait()
	}
	return b.v
}
