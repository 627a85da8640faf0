package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"meetcap/internal/modules/capture/domain"
	captureout "meetcap/internal/modules/capture/port/out"
	apperrors "meetcap/internal/platform/errors"
)

// Protocol opcodes of the recording control service.
const (
	opHello           = 0
	opIdentify        = 1
	opIdentified      = 2
	opRequest         = 6
	opRequestResponse = 7
)

type OBSOptions struct {
	URL              string
	RPCVersion       int
	HandshakeTimeout time.Duration
	RequestTimeout   time.Duration
}

type OBSControl struct {
	opts   OBSOptions
	dialer *websocket.Dialer
	logger *zap.Logger
}

func NewOBSControl(opts OBSOptions, logger *zap.Logger) *OBSControl {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RPCVersion == 0 {
		opts.RPCVersion = 1
	}
	return &OBSControl{
		opts:   opts,
		dialer: &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout},
		logger: logger,
	}
}

var _ captureout.RecordingControl = (*OBSControl)(nil)

type envelope struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type identifyData struct {
	RPCVersion         int `json:"rpcVersion"`
	EventSubscriptions int `json:"eventSubscriptions"`
}

type requestData struct {
	RequestType string         `json:"requestType"`
	RequestID   string         `json:"requestId"`
	RequestData map[string]any `json:"requestData"`
}

type responseData struct {
	RequestType   string `json:"requestType"`
	RequestID     string `json:"requestId"`
	RequestStatus struct {
		Result  bool   `json:"result"`
		Code    int    `json:"code"`
		Comment string `json:"comment"`
	} `json:"requestStatus"`
	ResponseData map[string]any `json:"responseData"`
}

// Dial connects, discards the greeting, identifies and waits for the
// identified acknowledgement.
func (c *OBSControl) Dial(ctx context.Context) (captureout.ControlConn, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.HandshakeTimeout)
	defer cancel()

	ws, _, err := c.dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return nil, unavailable("dial", err)
	}
	conn := &obsConn{
		ws:      ws,
		frames:  make(chan envelope, 16),
		done:    make(chan struct{}),
		quit:    make(chan struct{}),
		timeout: c.opts.RequestTimeout,
		logger:  c.logger,
	}
	go conn.readLoop()

	if _, err := conn.next(ctx); err != nil {
		_ = conn.Close()
		return nil, unavailable("await hello", err)
	}
	if err := conn.send(opIdentify, identifyData{RPCVersion: c.opts.RPCVersion}); err != nil {
		_ = conn.Close()
		return nil, unavailable("identify", err)
	}
	for {
		frame, err := conn.next(ctx)
		if err != nil {
			_ = conn.Close()
			return nil, unavailable("await identified", err)
		}
		if frame.Op == opIdentified {
			return conn, nil
		}
	}
}

type obsConn struct {
	ws      *websocket.Conn
	frames  chan envelope
	done    chan struct{}
	quit    chan struct{}
	timeout time.Duration
	logger  *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	readErr   error
}

func (c *obsConn) StartRecording(ctx context.Context, seed string) (domain.ControlResponse, error) {
	return c.request(ctx, domain.RequestStartRecord, seed)
}

func (c *obsConn) StopRecording(ctx context.Context, seed string) (domain.ControlResponse, error) {
	return c.request(ctx, domain.RequestStopRecord, seed)
}

func (c *obsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.quit)
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

func (c *obsConn) request(ctx context.Context, requestType, seed string) (domain.ControlResponse, error) {
	op := "request " + requestType
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	requestID := seed + "_" + uuid.NewString()
	req := requestData{RequestType: requestType, RequestID: requestID, RequestData: map[string]any{}}
	if err := c.send(opRequest, req); err != nil {
		return domain.ControlResponse{}, unavailable(op, err)
	}
	for {
		frame, err := c.next(ctx)
		if err != nil {
			return domain.ControlResponse{}, unavailable(op, err)
		}
		if frame.Op != opRequestResponse {
			continue
		}
		var resp responseData
		if err := json.Unmarshal(frame.D, &resp); err != nil {
			c.logger.Debug("discard malformed response", zap.Error(err))
			continue
		}
		if resp.RequestID != requestID {
			continue
		}
		return domain.ControlResponse{
			RequestType: resp.RequestType,
			RequestID:   resp.RequestID,
			Status: domain.RequestStatus{
				Result:  resp.RequestStatus.Result,
				Code:    resp.RequestStatus.Code,
				Comment: resp.RequestStatus.Comment,
			},
			Data: resp.ResponseData,
		}, nil
	}
}

func (c *obsConn) send(op int, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(envelope{Op: op, D: data})
}

// next returns the following decoded frame or fails on ctx, a lost
// connection or a closed reader.
func (c *obsConn) next(ctx context.Context) (envelope, error) {
	select {
	case frame := <-c.frames:
		return frame, nil
	case <-ctx.Done():
		return envelope{}, ctx.Err()
	case <-c.done:
		// frames already buffered before the reader stopped are still valid
		select {
		case frame := <-c.frames:
			return frame, nil
		default:
		}
		if c.readErr != nil {
			return envelope{}, c.readErr
		}
		return envelope{}, errors.New("connection closed")
	}
}

func (c *obsConn) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.readErr = err
			return
		}
		var frame envelope
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Debug("discard malformed frame", zap.Error(err))
			continue
		}
		select {
		case c.frames <- frame:
		case <-c.quit:
			return
		}
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrControlUnavailable, err)
}
