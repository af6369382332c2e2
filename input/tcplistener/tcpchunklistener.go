// Package tcplistener accepts syslog connections over TCP or TLS and feeds their messages to a receiver
package tcplistener

import (
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync"
	"github.com/rbmk-project/common/errclass"
	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/base"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/util"
)

const tcpReadBufferMax = 8 * 1024 * 1024 // Less than /proc/sys/net/ipv4/tcp_mem
const tcpReadBufferMin = 65536

var tcpLastReadBufferSize = tcpReadBufferMax // shared for all connections. No need to sync access as it's just a cached number.

// tcpChunkListener is a TCP or TLS Listener for request-only syslog streams
//
// The listener sends incoming messages into MultiSinkMessageReceiver, one sink per connection.
//
// - Each accepted connection is served by its own goroutine and never affects other connections or the listener.
//
// - For TLS, the handshake is performed inside of the connection goroutine.
//
// - There is no read or handshake timeout: a silent peer keeps its connection open until it disconnects or stop is requested.
type tcpChunkListener struct {
	logger           logger.Logger
	socket           *net.TCPListener
	tlsConfig        *tls.Config // nil for plain TCP; shared read-only by all connections
	options          Options
	receiver         base.MultiSinkMessageReceiver
	stopRequest      channels.Awaitable
	taskCounter      *sync.WaitGroup // counter to track connection tasks and the listener task itself
	stopped          channels.Awaitable
	activeConns      *xsync.Counter
	lastClientNumber base.ClientNumber // only accessed by the accept loop
	metrics          listenerMetrics
}

// NewTCPChunkListener creates a socket listening on the given TCP address and returns a new listener if successful
//
// The given address may use port zero, which would cause the port to be assigned by OS. tlsConfig may be nil for plain TCP.
//
// Returns the listener, actual address including final port, and error if failed
func NewTCPChunkListener(parentLogger logger.Logger, address string, tlsConfig *tls.Config, options Options,
	receiver base.MultiSinkMessageReceiver, stopRequest channels.Awaitable) (base.LogListener, string, error) {

	// open TCP socket
	socket, err := net.Listen("tcp", address)
	if err != nil {
		return nil, "", err
	}
	boundAddr := socket.Addr().String()

	transport := "tcp"
	if tlsConfig != nil {
		transport = "tls"
	}
	logger := parentLogger.WithFields(logger.Fields{
		defs.LabelComponent: "TCPChunkListener",
		defs.LabelAddress:   boundAddr,
		defs.LabelTransport: transport,
	})
	logger.Infof("start listening, framing=%s", options.Framing)

	if options.ReadBufferSize <= 0 {
		options.ReadBufferSize = defs.ListenerReadBufferSize
	}

	// init taskCounter with 1 for the listener; Can't wait for Start() because WaitGroupAwaitable below would quit immediately if it's zero.
	taskCounter := &sync.WaitGroup{}
	taskCounter.Add(1)

	return &tcpChunkListener{
		logger:           logger,
		socket:           socket.(*net.TCPListener),
		tlsConfig:        tlsConfig,
		options:          options,
		receiver:         receiver,
		stopRequest:      stopRequest,
		taskCounter:      taskCounter,
		stopped:          channels.NewWaitGroupAwaitable(taskCounter), // input is only fully stopped after all connections are closed
		activeConns:      &xsync.Counter{},
		lastClientNumber: 0,
		metrics:          newListenerMetrics(options.Metrics),
	}, boundAddr, nil
}

func (lsnr *tcpChunkListener) Start() {
	go lsnr.run()
}

func (lsnr *tcpChunkListener) Stopped() channels.Awaitable {
	return lsnr.stopped
}

func (lsnr *tcpChunkListener) run() {
	// background goroutine to wait and close listener on request
	abortListener := channels.NewSignalAwaitable()
	go func() {
		channels.AnyAwaitables(lsnr.stopRequest, abortListener).Next(func() {
			if abortListener.Peek() {
				lsnr.logger.Info("abort listener")
			} else {
				lsnr.logger.Info("close listener on stop request")
			}
		}).WaitForever()
		lsnr.socket.Close()
	}()

	// main loop
	lsnr.logger.Info("start accept loop")
	retryDelay := time.Duration(0)
	for {
		conn, err := lsnr.socket.AcceptTCP()
		if err != nil {
			if util.IsNetworkClosed(err) {
				if !lsnr.stopRequest.Peek() {
					lsnr.logger.Error("listener closed unexpectedly: ", err)
					abortListener.Signal()
				}
				break
			}
			retryDelay = nextRetryDelay(retryDelay)
			lsnr.logger.WithField(defs.LabelErrorClass, errclass.New(err)).Warnf("accept() error, retry in %s: %s", retryDelay, err.Error())
			if lsnr.stopRequest.Wait(retryDelay) {
				break
			}
			continue
		}
		retryDelay = 0

		lsnr.lastClientNumber++
		clientNumber := lsnr.lastClientNumber
		peer := util.DisplayPeer(conn)
		connLogger := lsnr.logger.WithFields(logger.Fields{
			defs.LabelPart:         "connection",
			defs.LabelClient:       peer,
			defs.LabelClientNumber: clientNumber,
		})
		if maxConns := lsnr.options.MaxConnections; maxConns > 0 && lsnr.activeConns.Value() >= int64(maxConns) {
			connLogger.Warnf("rejected connection: too many clients (max=%d)", maxConns)
			lsnr.metrics.rejectedConnections.Inc()
			conn.Close()
			continue
		}

		connLogger.Info("accepted connection")
		lsnr.configureSocket(connLogger, conn)
		lsnr.activeConns.Inc()
		lsnr.metrics.acceptedConnections.Inc()
		lsnr.metrics.activeConnections.Inc()
		lsnr.taskCounter.Add(1)
		go lsnr.runConnection(connLogger, conn, peer, clientNumber)
	}
	lsnr.logger.Info("end accept loop")

	// mark the listener itself as done, note there could still be established connections
	lsnr.taskCounter.Done()
}

func (lsnr *tcpChunkListener) runConnection(connLogger logger.Logger, conn *net.TCPConn, peer string, clientNumber base.ClientNumber) {
	defer lsnr.taskCounter.Done()
	defer func() {
		lsnr.activeConns.Dec()
		lsnr.metrics.activeConnections.Dec()
	}()

	connAborter := lsnr.launchConnectionCloser(connLogger, conn)
	defer connAborter.Signal()

	var stream net.Conn = conn
	if lsnr.tlsConfig != nil {
		tlsConn := tls.Server(conn, lsnr.tlsConfig)
		if err := tlsConn.Handshake(); err != nil {
			if util.IsNetworkClosed(err) && lsnr.stopRequest.Peek() {
				connLogger.Info("closed by stop request during handshake")
			} else {
				connLogger.WithField(defs.LabelErrorClass, errclass.New(err)).Error("TLS handshake failed: ", err)
				lsnr.metrics.handshakeFailures.Inc()
			}
			return
		}
		state := tlsConn.ConnectionState()
		connLogger.Debugf("TLS established: %s %s", tls.VersionName(state.Version), tls.CipherSuiteName(state.CipherSuite))
		stream = tlsConn
	}

	sink := lsnr.receiver.NewSink(peer, clientNumber)
	defer sink.Close()

	reader := newMessageReader(lsnr.options.Framing, lsnr.countingReader(stream), lsnr.options.ReadBufferSize, sink.Accept)
	for {
		err := reader.Read()
		if err == nil {
			continue
		}
		reader.FlushAll()
		switch {
		case util.IsNetworkClosed(err) && lsnr.stopRequest.Peek():
			connLogger.Info("closed by stop request")
		case util.IsNetworkClosed(err):
			connLogger.Info("closed by peer")
		default:
			connLogger.WithField(defs.LabelErrorClass, errclass.New(err)).Warn("read() error: ", err)
		}
		break
	}
	connLogger.Info("ended")
}

func (lsnr *tcpChunkListener) countingReader(stream net.Conn) ioReader {
	return func(p []byte) (int, error) {
		n, err := stream.Read(p)
		if n > 0 {
			lsnr.metrics.receivedBytes.Add(float64(n))
		}
		return n, err
	}
}

func (lsnr *tcpChunkListener) launchConnectionCloser(connLogger logger.Logger, conn *net.TCPConn) *channels.SignalAwaitable {
	abortConn := channels.NewSignalAwaitable()
	// background goroutine to wait and close connection on request or end
	go func() {
		channels.AnyAwaitables(lsnr.stopRequest, abortConn).Next(func() {
			if !abortConn.Peek() {
				connLogger.Info("close connection on stop request")
			}
		}).WaitForever()
		conn.Close()
	}()
	return abortConn
}

func (lsnr *tcpChunkListener) configureSocket(connLogger logger.Logger, conn *net.TCPConn) {
	if err := conn.SetKeepAlive(true); err != nil {
		connLogger.Warnf("error enabling keep-alive: %s", err.Error())
	}

	if sz, err := util.TrySetTCPReadBuffer(conn, tcpLastReadBufferSize, tcpReadBufferMin); err != nil {
		connLogger.Warnf("error changing buffer size: %s", err.Error())
	} else {
		connLogger.Debugf("set TCP buffer size: %d", sz)
		tcpLastReadBufferSize = sz
	}
}

func nextRetryDelay(previous time.Duration) time.Duration {
	if previous < defs.AcceptRetryDelayMin {
		return defs.AcceptRetryDelayMin
	}
	if next := previous * 2; next < defs.AcceptRetryDelayMax {
		return next
	}
	return defs.AcceptRetryDelayMax
}
