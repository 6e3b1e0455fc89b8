package stream

import (
	"net/http"
	"sync"
)

// clientBufferPackets bounds how many pending broadcast buffers (each one
// AVIO write callback's worth, up to tsIOBufferSize bytes of TS packets)
// a slow client can accumulate before the hub starts dropping its
// oldest ones (spec
// §4.7 "Handles backpressure per client by dropping TS packets rather
// than blocking the worker", spec §5 "a slow client sees drops, never
// reordering").
const clientBufferPackets = 512

// client is one connected HTTP viewer of the MPEG-TS stream.
type client struct {
	ch     chan []byte
	closed chan struct{}
	once   sync.Once
}

func newClient() *client {
	return &client{ch: make(chan []byte, clientBufferPackets), closed: make(chan struct{})}
}

// send enqueues data, dropping the oldest pending buffer instead of
// blocking the encoder worker if the client's buffer is full.
func (c *client) send(data []byte) {
	owned := make([]byte, len(data))
	copy(owned, data)
	select {
	case c.ch <- owned:
	default:
		select {
		case <-c.ch:
		default:
		}
		select {
		case c.ch <- owned:
		default:
		}
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.closed) })
}

// hub fans encoded TS bytes out to every connected HTTP client and
// serves the chunked-transfer MPEG-TS endpoint itself (spec §4.7 "Binds
// a listening TCP socket ... to every connected HTTP client").
type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	server  *http.Server
	port    int
}

func newHub() *hub {
	return &hub{clients: map[*client]struct{}{}}
}

// broadcast pushes ts (a sequence of 188-byte-aligned packets) to every
// connected client.
func (h *hub) broadcast(ts []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.send(ts)
	}
}

func (h *hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) addClient() *client {
	c := newClient()
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *hub) removeClient(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "video/mp2t")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	c := h.addClient()
	defer h.removeClient(c)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.closed:
			return
		case data := <-c.ch:
			if _, err := w.Write(data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// start binds the listening socket and begins serving the HTTP MPEG-TS
// endpoint (spec §4.7: "Binds a listening TCP socket").
func (h *hub) start(port int) error {
	h.mu.Lock()
	h.port = port
	h.mu.Unlock()

	mux := http.NewServeMux()
	mux.Handle("/stream.ts", h)
	srv := &http.Server{Addr: portAddr(port), Handler: mux}
	h.server = srv

	ln, err := listen(portAddr(port))
	if err != nil {
		return err
	}
	go srv.Serve(ln)
	return nil
}

func (h *hub) stop() error {
	h.mu.Lock()
	srv := h.server
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = map[*client]struct{}{}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	if srv == nil {
		return nil
	}
	return srv.Close()
}

func (h *hub) urls() []string {
	h.mu.Lock()
	port := h.port
	h.mu.Unlock()
	return []string{urlForPort(port)}
}
