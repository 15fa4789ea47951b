package api_test

import (
	"errors"
	"net/rpc"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/stretchr/testify/suite"
	"github.com/tauraamui/framebridge/api"
	"github.com/tauraamui/framebridge/pkg/bridge"
	"github.com/tauraamui/framebridge/pkg/database/models"
	"github.com/tauraamui/framebridge/pkg/log"
)

const testSecret = "test-signing-secret"

type testSourceController struct {
	mu      sync.Mutex
	paused  []string
	resumed []string
}

func (t *testSourceController) Sources() []bridge.SourceStatus {
	return []bridge.SourceStatus{
		{UUID: "source-uuid", Title: "FrontARCam", Type: "arcamera", State: "playing", Width: 640, Height: 480, Frames: 12},
	}
}

func (t *testSourceController) PauseSource(uuid string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if uuid != "source-uuid" {
		return bridge.ErrUnknownSource
	}
	t.paused = append(t.paused, uuid)
	return nil
}

func (t *testSourceController) ResumeSource(uuid string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resumed = append(t.resumed, uuid)
	return nil
}

type testUserAuthenticator struct{}

func (testUserAuthenticator) Authenticate(username, password string) (models.User, error) {
	if username == "admin" && password == "pass|word" {
		return models.User{UUID: "admin-uuid", Name: username}, nil
	}
	return models.User{}, errors.New("incorrect password")
}

type RPCAPITestSuite struct {
	suite.Suite
	is         *is.I
	interrupt  chan os.Signal
	controller *testSourceController
	server     *api.BridgeServer
	client     *rpc.Client
	resetters  []func()
}

func (suite *RPCAPITestSuite) SetupTest() {
	suite.is = is.New(suite.T())
	suite.resetters = []func(){
		log.Silence(),
		api.OverloadRemoteShutdownDelay(time.Millisecond),
	}
	suite.interrupt = make(chan os.Signal, 1)
	suite.controller = &testSourceController{}
	suite.server = api.New(suite.interrupt, suite.controller, testUserAuthenticator{}, api.Options{
		RPCListenAddr: "127.0.0.1:0",
		SigningSecret: testSecret,
	})
	suite.is.NoErr(api.StartRPC(suite.server))

	client, err := rpc.DialHTTP("tcp", api.Addr(suite.server))
	suite.is.NoErr(err)
	suite.client = client
}

func (suite *RPCAPITestSuite) TearDownTest() {
	suite.is.NoErr(suite.client.Close())
	suite.is.NoErr(api.ShutdownRPC(suite.server))
	for _, reset := range suite.resetters {
		reset()
	}
}

func (suite *RPCAPITestSuite) authenticate() string {
	var token string
	suite.is.NoErr(suite.client.Call("BridgeServer.Authenticate", "admin|pass|word", &token))
	suite.is.True(len(token) > 0)
	return token
}

func (suite *RPCAPITestSuite) TestAuthenticateWithBadCredentialsFails() {
	var token string
	err := suite.client.Call("BridgeServer.Authenticate", "admin|wrong", &token)
	suite.is.Equal(err.Error(), "user must be authenticated")
	suite.is.Equal(token, "")
}

func (suite *RPCAPITestSuite) TestAuthenticateWithMalformedInputFails() {
	var token string
	err := suite.client.Call("BridgeServer.Authenticate", "adminonly", &token)
	suite.is.Equal(err.Error(), "unable to correctly retrieve username and password from malformed input")
}

func (suite *RPCAPITestSuite) TestSourcesRequiresValidSession() {
	var statuses []bridge.SourceStatus
	err := suite.client.Call("BridgeServer.Sources", &api.Session{Token: "not-a-token"}, &statuses)
	suite.is.Equal(err.Error(), "user must be authenticated")
}

func (suite *RPCAPITestSuite) TestSourcesWithValidSession() {
	token := suite.authenticate()

	var statuses []bridge.SourceStatus
	suite.is.NoErr(suite.client.Call("BridgeServer.Sources", &api.Session{Token: token}, &statuses))
	suite.is.Equal(statuses, suite.controller.Sources())
}

func (suite *RPCAPITestSuite) TestPauseAndResumeSource() {
	token := suite.authenticate()

	var paused, resumed bool
	suite.is.NoErr(suite.client.Call("BridgeServer.PauseSource", &api.Session{Token: token, SourceUUID: "source-uuid"}, &paused))
	suite.is.NoErr(suite.client.Call("BridgeServer.ResumeSource", &api.Session{Token: token, SourceUUID: "source-uuid"}, &resumed))
	suite.is.True(paused)
	suite.is.True(resumed)

	suite.controller.mu.Lock()
	defer suite.controller.mu.Unlock()
	suite.is.Equal(suite.controller.paused, []string{"source-uuid"})
	suite.is.Equal(suite.controller.resumed, []string{"source-uuid"})
}

func (suite *RPCAPITestSuite) TestPauseUnknownSourceFails() {
	token := suite.authenticate()

	var paused bool
	err := suite.client.Call("BridgeServer.PauseSource", &api.Session{Token: token, SourceUUID: "missing"}, &paused)
	suite.is.Equal(err.Error(), "no image source with given UUID")
}

func (suite *RPCAPITestSuite) TestRemoteShutdownSignalsInterrupt() {
	token := suite.authenticate()

	var accepted bool
	suite.is.NoErr(suite.client.Call("BridgeServer.Shutdown", &api.Session{Token: token}, &accepted))
	suite.is.True(accepted)

	select {
	case sig := <-suite.interrupt:
		suite.is.Equal(sig, api.SIGREMOTE)
	case <-time.After(3 * time.Second):
		suite.T().Fatal("no interrupt received before timeout")
	}
}

func TestRPCAPITestSuite(t *testing.T) {
	suite.Run(t, &RPCAPITestSuite{})
}

func TestValidateAuth(t *testing.T) {
	is := is.New(t)

	_, _, err := api.ValidateAuth("")
	is.Equal(err.Error(), "cannot retrieve username and password from blank input")

	_, _, err = api.ValidateAuth("|password")
	is.True(err != nil)

	username, password, err := api.ValidateAuth("admin|pa|ss")
	is.NoErr(err)
	is.Equal(username, "admin")
	is.Equal(password, "pa|ss")
}

func TestShutdownRPCBeforeStartFails(t *testing.T) {
	is := is.New(t)
	server := api.New(nil, &testSourceController{}, testUserAuthenticator{}, api.Options{})
	is.True(errors.Is(api.ShutdownRPC(server), api.ErrNotRunning))
	is.Equal(api.Addr(server), "")
}
