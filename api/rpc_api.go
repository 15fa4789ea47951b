package api

import (
	"errors"
	"net"
	"net/http"
	"net/rpc"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/tauraamui/framebridge/api/auth"
	"github.com/tauraamui/framebridge/pkg/bridge"
	"github.com/tauraamui/framebridge/pkg/database/models"
	"github.com/tauraamui/framebridge/pkg/log"
	"github.com/tauraamui/xerror"
)

const SIGREMOTE = Signal(0x1)

type Signal int

func (s Signal) Signal() {}

func (s Signal) String() string {
	return "remote-shutdown"
}

var (
	ErrUnauthenticated = xerror.New("user must be authenticated")
	ErrNotRunning      = xerror.New("API server not running")
)

type Options struct {
	RPCListenAddr string
	SigningSecret string
}

// Session is sent with every call after Authenticate, SourceUUID names the
// image source a source specific call applies to.
type Session struct {
	Token      string
	SourceUUID string
}

type SourceController interface {
	Sources() []bridge.SourceStatus
	PauseSource(string) error
	ResumeSource(string) error
}

type UserAuthenticator interface {
	Authenticate(username, password string) (models.User, error)
}

type BridgeServer struct {
	mu            sync.Mutex
	interrupt     chan os.Signal
	s             SourceController
	users         UserAuthenticator
	httpServer    *http.Server
	listener      net.Listener
	rpcListenAddr string
	signingSecret string
}

func New(interrupt chan os.Signal, server SourceController, users UserAuthenticator, opts Options) *BridgeServer {
	return &BridgeServer{
		interrupt:     interrupt,
		s:             server,
		users:         users,
		rpcListenAddr: opts.RPCListenAddr,
		signingSecret: opts.SigningSecret,
	}
}

var remoteShutdownDelay = time.Second

func StartRPC(m *BridgeServer) error {
	rpcServer := rpc.NewServer()
	if err := rpcServer.Register(m); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, rpcServer)

	l, err := net.Listen("tcp", m.rpcListenAddr)
	if err != nil {
		return xerror.Errorf("unable to listen for RPC on %s: %w", m.rpcListenAddr, err)
	}

	m.mu.Lock()
	m.listener = l
	m.httpServer = &http.Server{Handler: mux}
	httpServer := m.httpServer
	m.mu.Unlock()

	go func() {
		if err := httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("RPC server stopped: %v", err)
		}
	}()

	log.Info("Listening for RPC on: %s", l.Addr())
	return nil
}

// Addr returns the address the RPC server is listening on, empty before
// StartRPC.
func Addr(m *BridgeServer) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

func ShutdownRPC(m *BridgeServer) error {
	if m == nil {
		return ErrNotRunning
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.httpServer == nil {
		return ErrNotRunning
	}
	return m.httpServer.Close()
}

// Authenticate takes "username|password" and responds with a session
// token.
func (m *BridgeServer) Authenticate(authContents string, resp *string) error {
	username, password, err := validateAuth(authContents)
	if err != nil {
		return err
	}

	user, err := m.users.Authenticate(username, password)
	if err != nil {
		log.Warn("Failed authentication attempt for user [%s]", username)
		return ErrUnauthenticated
	}

	token, err := auth.GenToken(m.signingSecret, user.UUID)
	if err != nil {
		return err
	}

	*resp = token
	return nil
}

func (m *BridgeServer) Sources(sess *Session, resp *[]bridge.SourceStatus) error {
	if err := m.validateSession(sess); err != nil {
		return err
	}
	*resp = m.s.Sources()
	return nil
}

func (m *BridgeServer) PauseSource(sess *Session, resp *bool) error {
	if err := m.validateSession(sess); err != nil {
		return err
	}

	log.Warn("Received remote pause request for source [%s]...", sess.SourceUUID)
	if err := m.s.PauseSource(sess.SourceUUID); err != nil {
		*resp = false
		return err
	}

	*resp = true
	return nil
}

func (m *BridgeServer) ResumeSource(sess *Session, resp *bool) error {
	if err := m.validateSession(sess); err != nil {
		return err
	}

	log.Warn("Received remote resume request for source [%s]...", sess.SourceUUID)
	if err := m.s.ResumeSource(sess.SourceUUID); err != nil {
		*resp = false
		return err
	}

	*resp = true
	return nil
}

func (m *BridgeServer) Shutdown(sess *Session, resp *bool) error {
	if err := m.validateSession(sess); err != nil {
		return err
	}

	*resp = true
	log.Warn("Received remote shutdown request...")
	go func() {
		time.Sleep(remoteShutdownDelay)
		m.interrupt <- SIGREMOTE
	}()
	return nil
}

func (m *BridgeServer) validateSession(sess *Session) error {
	if sess == nil || len(sess.Token) == 0 {
		return ErrUnauthenticated
	}
	if _, err := auth.ValidateToken(m.signingSecret, sess.Token); err != nil {
		log.Debug("Rejected session: %v", err)
		return ErrUnauthenticated
	}
	return nil
}

func validateAuth(auth string) (string, string, error) {
	if len(auth) == 0 {
		return "", "", xerror.New("cannot retrieve username and password from blank input")
	}

	split := strings.SplitN(auth, "|", 2)
	if len(split) < 2 || len(split[0]) == 0 {
		return "", "", xerror.New("unable to correctly retrieve username and password from malformed input")
	}

	return split[0], split[1], nil
}
