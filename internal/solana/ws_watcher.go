package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSWatcherConfig configures WebSocket watcher behavior.
type WSWatcherConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSWatcherConfig returns default watcher configuration.
func DefaultWSWatcherConfig() WSWatcherConfig {
	return WSWatcherConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSWatcher implements AccountWatcher using gorilla/websocket and Solana's
// accountSubscribe. Each tracked wallet gets one subscription; any account
// notification marks the wallet dirty.
type WSWatcher struct {
	endpoint string
	config   WSWatcherConfig
	wallets  []string

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps subscription ID to wallet address
	subs   map[int64]string
	subsMu sync.RWMutex

	// pendingSubs maps request ID to channel waiting for subscription ID
	pendingSubs   map[uint64]chan int64
	pendingSubsMu sync.Mutex

	dirty chan string

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewWSWatcher connects to the endpoint and subscribes to every wallet.
func NewWSWatcher(ctx context.Context, endpoint string, wallets []string, config *WSWatcherConfig) (*WSWatcher, error) {
	cfg := DefaultWSWatcherConfig()
	if config != nil {
		cfg = *config
	}

	w := &WSWatcher{
		endpoint:    endpoint,
		config:      cfg,
		wallets:     wallets,
		subs:        make(map[int64]string),
		pendingSubs: make(map[uint64]chan int64),
		dirty:       make(chan string, 64),
		done:        make(chan struct{}),
	}

	if err := w.connect(ctx); err != nil {
		return nil, err
	}

	w.wg.Add(1)
	go w.readLoop()

	w.wg.Add(1)
	go w.pingLoop()

	for _, wallet := range wallets {
		if err := w.subscribeAccount(ctx, wallet); err != nil {
			w.Close()
			return nil, fmt.Errorf("subscribe %s: %w", wallet, err)
		}
	}

	return w, nil
}

// Compile-time interface check.
var _ AccountWatcher = (*WSWatcher)(nil)

// Dirty returns the channel of wallets with detected activity. Bursts
// beyond the buffer are dropped; a dropped event only delays detection
// until the next polling cycle.
func (w *WSWatcher) Dirty() <-chan string {
	return w.dirty
}

// connect establishes the WebSocket connection.
func (w *WSWatcher) connect(ctx context.Context) error {
	w.connMu.Lock()
	defer w.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	w.conn = conn
	return nil
}

// subscribeAccount subscribes to account change notifications for a wallet.
func (w *WSWatcher) subscribeAccount(ctx context.Context, wallet string) error {
	if w.closed.Load() {
		return fmt.Errorf("watcher closed")
	}

	reqID := w.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "accountSubscribe",
		Params: []interface{}{
			wallet,
			map[string]string{"encoding": "jsonParsed", "commitment": "confirmed"},
		},
	}

	confirmCh := make(chan int64, 1)
	w.pendingSubsMu.Lock()
	w.pendingSubs[reqID] = confirmCh
	w.pendingSubsMu.Unlock()

	w.connMu.Lock()
	if w.conn == nil {
		w.connMu.Unlock()
		w.dropPending(reqID)
		return fmt.Errorf("not connected")
	}

	w.conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
	err := w.conn.WriteJSON(req)
	w.connMu.Unlock()

	if err != nil {
		w.dropPending(reqID)
		return fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case subID := <-confirmCh:
		w.subsMu.Lock()
		w.subs[subID] = wallet
		w.subsMu.Unlock()
		return nil
	case <-time.After(30 * time.Second):
		w.dropPending(reqID)
		return fmt.Errorf("subscription timeout after 30s")
	case <-w.done:
		return fmt.Errorf("watcher closed")
	case <-ctx.Done():
		w.dropPending(reqID)
		return ctx.Err()
	}
}

func (w *WSWatcher) dropPending(reqID uint64) {
	w.pendingSubsMu.Lock()
	delete(w.pendingSubs, reqID)
	w.pendingSubsMu.Unlock()
}

// Close closes the WebSocket connection.
func (w *WSWatcher) Close() error {
	if w.closed.Swap(true) {
		return nil // Already closed
	}

	close(w.done)

	w.connMu.Lock()
	if w.conn != nil {
		w.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		w.conn.Close()
	}
	w.connMu.Unlock()

	w.pendingSubsMu.Lock()
	for id, ch := range w.pendingSubs {
		close(ch)
		delete(w.pendingSubs, id)
	}
	w.pendingSubsMu.Unlock()

	w.wg.Wait()
	close(w.dirty)
	return nil
}

// readLoop reads messages and dispatches notifications.
func (w *WSWatcher) readLoop() {
	defer w.wg.Done()

	reconnectDelay := w.config.ReconnectDelay

	for !w.closed.Load() {
		w.connMu.Lock()
		conn := w.conn
		w.connMu.Unlock()

		if conn == nil {
			select {
			case <-w.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if w.closed.Load() {
				return
			}

			if !w.reconnecting.Swap(true) {
				go w.reconnect(reconnectDelay)
			}

			// Exponential backoff
			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > w.config.MaxReconnectDelay {
				reconnectDelay = w.config.MaxReconnectDelay
			}

			select {
			case <-w.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = w.config.ReconnectDelay

		w.handleMessage(message)
	}
}

// reconnect attempts to reconnect and resubscribe every wallet.
func (w *WSWatcher) reconnect(delay time.Duration) {
	defer w.reconnecting.Store(false)

	if w.closed.Load() {
		return
	}

	select {
	case <-w.done:
		return
	case <-time.After(delay):
	}

	w.connMu.Lock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.connect(ctx); err != nil {
		// Reconnect failed, will retry on next read error
		return
	}

	// Old subscription IDs died with the connection.
	w.subsMu.Lock()
	w.subs = make(map[int64]string)
	w.subsMu.Unlock()

	for _, wallet := range w.wallets {
		subCtx, subCancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := w.subscribeAccount(subCtx, wallet)
		subCancel()
		if err != nil {
			// Missed subscriptions self-heal on the next reconnect; the
			// polling cycle still covers the wallet meanwhile.
			continue
		}
	}
}

// handleMessage processes one incoming WebSocket message.
func (w *WSWatcher) handleMessage(message []byte) {
	// Subscription confirmation first
	var resp wsSubscribeResponse
	if err := json.Unmarshal(message, &resp); err == nil && resp.Result > 0 {
		w.pendingSubsMu.Lock()
		ch, ok := w.pendingSubs[resp.ID]
		if ok {
			delete(w.pendingSubs, resp.ID)
		}
		w.pendingSubsMu.Unlock()

		if ok {
			select {
			case ch <- resp.Result:
			default:
			}
		}
		return
	}

	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err == nil &&
		notif.Method == "accountNotification" && notif.Params != nil {
		w.markDirty(notif.Params.Subscription)
	}
}

// markDirty emits the wallet tied to a subscription. The send never blocks:
// the dirty channel is a trigger, not a ledger.
func (w *WSWatcher) markDirty(subID int64) {
	w.subsMu.RLock()
	wallet, ok := w.subs[subID]
	w.subsMu.RUnlock()
	if !ok {
		return
	}

	select {
	case w.dirty <- wallet:
	default:
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (w *WSWatcher) pingLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.connMu.Lock()
			if w.conn != nil {
				w.conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
				if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			w.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"` // subscription ID
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64           `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}
