// Package chat is the client of the archive's chat channel.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcarch/mcarch-editor/internal/httpclient"
)

const (
	EventJoin    = "join"
	EventSend    = "send"
	EventJoined  = "joined"
	EventMessage = "message"
	EventError   = "err"

	writeWait = 10 * time.Second
)

var ErrClosed = errors.New("chat connection closed")

type Message struct {
	User    string `json:"user"`
	Content string `json:"content"`
}

type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

type channelData struct {
	Chan string `json:"chan"`
	Msg  string `json:"msg,omitempty"`
}

type messageData struct {
	Msg Message `json:"msg"`
}

type errorData struct {
	Msg string `json:"msg"`
}

// Handler receives server events from Listen. Calls happen on the Listen goroutine.
type Handler interface {
	Joined()
	Message(message Message)
	ServerError(message string)
}

type Client struct {
	conn    *websocket.Conn
	channel string

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

type DialOptions struct {
	Jar    http.CookieJar
	Header http.Header
}

// Dial opens the socket at <server>/chat and joins channel.
func Dial(ctx context.Context, serverURL string, channel string, options DialOptions) (*Client, error) {
	endpoint, err := SocketURL(serverURL)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: httpclient.DefaultChatDialTimeout,
		Jar:              options.Jar,
	}
	conn, response, err := dialer.DialContext(ctx, endpoint, options.Header)
	if response != nil && response.Body != nil {
		_ = httpclient.DrainAndClose(response.Body)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, httpclient.WrapTimeoutError(err))
	}

	client := &Client{conn: conn, channel: channel}
	if err := client.emit(EventJoin, channelData{Chan: channel}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return client, nil
}

// SocketURL maps http(s)://host/base to ws(s)://host/base/chat.
func SocketURL(serverURL string) (string, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", serverURL, err)
	}
	switch parsed.Scheme {
	case "http", "ws":
		parsed.Scheme = "ws"
	case "https", "wss":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q in server url", parsed.Scheme)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/chat"
	return parsed.String(), nil
}

func (client *Client) Channel() string {
	return client.channel
}

// Send posts text to the joined channel. Blank text is not sent.
func (client *Client) Send(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return client.emit(EventSend, channelData{Chan: client.channel, Msg: text})
}

func (client *Client) emit(name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	client.writeMu.Lock()
	defer client.writeMu.Unlock()
	if client.isClosed() {
		return ErrClosed
	}
	_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.conn.WriteJSON(Event{Name: name, Data: payload}); err != nil {
		return fmt.Errorf("failed to send %s: %w", name, err)
	}
	return nil
}

// Listen dispatches server events until the context ends or the connection
// closes. A normal close returns nil.
func (client *Client) Listen(ctx context.Context, handler Handler) error {
	stop := context.AfterFunc(ctx, func() {
		_ = client.Close()
	})
	defer stop()

	for {
		var event Event
		if err := client.conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil || client.isClosed() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("chat connection lost: %w", err)
		}
		if err := dispatch(event, handler); err != nil {
			return err
		}
	}
}

func dispatch(event Event, handler Handler) error {
	switch event.Name {
	case EventJoined:
		handler.Joined()
	case EventMessage:
		var data messageData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("malformed message event: %w", err)
		}
		handler.Message(data.Msg)
	case EventError:
		var data errorData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("malformed err event: %w", err)
		}
		handler.ServerError(data.Msg)
	}
	return nil
}

func (client *Client) isClosed() bool {
	client.closeMu.Lock()
	defer client.closeMu.Unlock()
	return client.closed
}

// Close says goodbye to the server and drops the connection. It is safe to call twice.
func (client *Client) Close() error {
	client.closeMu.Lock()
	if client.closed {
		client.closeMu.Unlock()
		return nil
	}
	client.closed = true
	client.closeMu.Unlock()

	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	writeErr := client.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
	closeErr := client.conn.Close()
	if errors.Is(writeErr, websocket.ErrCloseSent) {
		writeErr = nil
	}
	return errors.Join(writeErr, closeErr)
}
