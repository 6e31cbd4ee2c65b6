package appstate

import "sync"

// Listener receives every new state with its version. Versions only grow, so
// a listener that runs late can tell it has been overtaken.
type Listener func(version uint64, s State)

// Store serializes dispatches. Listeners run on the dispatching goroutine
// after the lock is released.
type Store struct {
	mu        sync.Mutex
	state     State
	version   uint64
	listeners map[int]Listener
	nextID    int
}

func NewStore(initial State) *Store {
	return &Store{
		state:     initial,
		listeners: make(map[int]Listener),
	}
}

func (st *Store) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state
}

func (st *Store) Version() uint64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.version
}

func (st *Store) Dispatch(a Action) State {
	st.mu.Lock()
	st.state = Reduce(st.state, a)
	st.version++
	s, v := st.state, st.version
	listeners := make([]Listener, 0, len(st.listeners))
	for _, l := range st.listeners {
		listeners = append(listeners, l)
	}
	st.mu.Unlock()

	for _, l := range listeners {
		l(v, s)
	}
	return s
}

func (st *Store) Subscribe(l Listener) (unsubscribe func()) {
	st.mu.Lock()
	id := st.nextID
	st.nextID++
	st.listeners[id] = l
	st.mu.Unlock()

	return func() {
		st.mu.Lock()
		delete(st.listeners, id)
		st.mu.Unlock()
	}
}
