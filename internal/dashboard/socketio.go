package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/ganbootstrap/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ScalarsEvent is the socket.io event name scalars are emitted under.
const ScalarsEvent = "scalars"

const connectTimeout = 15 * time.Second

type publisher interface {
	Emit(ev string, args ...any) error
	Id() string
}

// SocketIO emits every epoch's scalars to a live dashboard.
type SocketIO struct {
	pub        publisher
	disconnect func()
	run        string
	now        func() time.Time
}

// NewSocketIO connects to the dashboard at rawURL. The URL path selects the
// socket.io namespace; an empty path uses the root namespace.
func NewSocketIO(ctx context.Context, rawURL, run string) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("dashboard", rawURL)
	logger.Info("Connecting to dashboard...")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard URL: %w", err)
	}
	namespace := parsedURL.Path
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("EVENT HANDLER: 'connect' event fired")
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := connectError(errs)
		logger.Debug("EVENT HANDLER: 'connect_error' event fired", "error", err)
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", connectTimeout)
	}

	logger.Info("📡 Dashboard connected.", "sid", io.Id(), "namespace", namespace)
	return newSocketIO(io, func() { io.Disconnect() }, run), nil
}

func newSocketIO(pub publisher, disconnect func(), run string) *SocketIO {
	return &SocketIO{pub: pub, disconnect: disconnect, run: run, now: time.Now}
}

func (s *SocketIO) AddScalars(ctx context.Context, epoch int, scalars map[string]float64) error {
	ev := Event{Time: s.now().UTC(), Run: s.run, Epoch: epoch, Scalars: copyScalars(scalars)}
	ctxlog.FromContext(ctx).Debug("Emitting event", "event", ScalarsEvent, "epoch", epoch, "sid", s.pub.Id())
	if err := s.pub.Emit(ScalarsEvent, ev); err != nil {
		return fmt.Errorf("emitting %s: %w", ScalarsEvent, err)
	}
	return nil
}

func (s *SocketIO) Close() error {
	if s.disconnect != nil {
		s.disconnect()
		s.disconnect = nil
	}
	return nil
}

// connectError turns a connect_error payload into an error. The payload may
// be empty.
func connectError(payload []any) error {
	if len(payload) == 0 {
		return errors.New("socket.io connection refused")
	}
	if err, ok := payload[0].(error); ok && err != nil {
		return err
	}
	return fmt.Errorf("socket.io connection refused: %v", payload[0])
}
