package database_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"
	"github.com/tauraamui/framebridge/pkg/database"
	"github.com/tauraamui/framebridge/pkg/database/dbconn"
	"github.com/tauraamui/framebridge/pkg/database/models"
	"github.com/tauraamui/framebridge/pkg/log"
)

type testPasswordPromptReader struct {
	passwords []string
	reads     int
	err       error
}

func (t *testPasswordPromptReader) ReadPassword(string) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	password := t.passwords[t.reads%len(t.passwords)]
	t.reads++
	return []byte(password), nil
}

type DatabaseSetupTestSuite struct {
	suite.Suite
	is        *is.I
	fs        afero.Fs
	db        dbconn.MockGormWrapper
	resetters []func()
}

func (suite *DatabaseSetupTestSuite) SetupTest() {
	suite.is = is.New(suite.T())
	suite.fs = afero.NewMemMapFs()
	suite.db = dbconn.Mock()
	suite.resetters = []func(){
		log.Silence(),
		database.OverloadFS(suite.fs),
		database.OverloadUC(func() (string, error) { return "/testroot/.cache", nil }),
		database.OverloadOpenDBConnection(func(string) (dbconn.GormWrapper, error) { return suite.db, nil }),
		database.OverloadPlainPromptReader(database.NewStdinPlainReader(strings.NewReader("testadmin\n"))),
	}
}

func (suite *DatabaseSetupTestSuite) TearDownTest() {
	for _, reset := range suite.resetters {
		reset()
	}
}

func (suite *DatabaseSetupTestSuite) overloadPasswords(reader *testPasswordPromptReader) {
	suite.resetters = append(suite.resetters, database.OverloadPasswordPromptReader(reader))
}

func (suite *DatabaseSetupTestSuite) TestSetupCreatesDBFileAndRootUser() {
	suite.overloadPasswords(&testPasswordPromptReader{passwords: []string{"testpassword"}})

	suite.is.NoErr(database.Setup())

	exists, err := afero.Exists(suite.fs, "/testroot/.cache/tacusci/framebridge/fb.db")
	suite.is.NoErr(err)
	suite.is.True(exists)

	suite.is.Equal(len(suite.db.Migrated()), 1)
	suite.is.Equal(len(suite.db.Created()), 1)
	user, ok := suite.db.Created()[0].(*models.User)
	suite.is.True(ok)
	suite.is.Equal(user.Name, "testadmin")
}

func (suite *DatabaseSetupTestSuite) TestSetupFailsWhenDBAlreadyExists() {
	suite.overloadPasswords(&testPasswordPromptReader{passwords: []string{"testpassword"}})
	suite.is.NoErr(suite.fs.MkdirAll("/testroot/.cache/tacusci/framebridge", os.ModePerm))
	_, err := suite.fs.Create("/testroot/.cache/tacusci/framebridge/fb.db")
	suite.is.NoErr(err)

	err = database.Setup()
	suite.is.True(errors.Is(err, database.ErrDBAlreadyExists))
	suite.is.Equal(err.Error(), "database file already exists: /testroot/.cache/tacusci/framebridge/fb.db")
}

func (suite *DatabaseSetupTestSuite) TestSetupFailsAfterThreeMismatchedPasswords() {
	reader := &testPasswordPromptReader{passwords: []string{"first", "second"}}
	suite.overloadPasswords(reader)

	err := database.Setup()
	suite.is.True(err != nil)
	suite.is.Equal(err.Error(), "failed to prompt for root password: tried entering new password at least 3 times")
	suite.is.Equal(reader.reads, 6)
	suite.is.Equal(len(suite.db.Created()), 0)
}

func (suite *DatabaseSetupTestSuite) TestSetupFailsWhenPasswordPromptFails() {
	suite.overloadPasswords(&testPasswordPromptReader{err: errors.New("test tty error")})

	err := database.Setup()
	suite.is.Equal(err.Error(), "failed to prompt for root password: unable to prompt for root password: test tty error")
}

func (suite *DatabaseSetupTestSuite) TestSetupFailsOnPathResolution() {
	suite.resetters = append(suite.resetters, database.OverloadUC(func() (string, error) {
		return "", errors.New("test cache dir error")
	}))

	err := database.Setup()
	suite.is.True(err != nil)
	suite.is.Equal(err.Error(), "unable to resolve fb.db database file location: test cache dir error")
}

func (suite *DatabaseSetupTestSuite) TestDestroyRemovesDBFile() {
	suite.overloadPasswords(&testPasswordPromptReader{passwords: []string{"testpassword"}})
	suite.is.NoErr(database.Setup())
	suite.is.NoErr(database.Destroy())

	exists, err := afero.Exists(suite.fs, "/testroot/.cache/tacusci/framebridge/fb.db")
	suite.is.NoErr(err)
	suite.is.True(!exists)
}

func (suite *DatabaseSetupTestSuite) TestDBPathFromEnv() {
	os.Setenv("FRAMEBRIDGE_DB", "/elsewhere/users.db")
	defer os.Unsetenv("FRAMEBRIDGE_DB")
	suite.overloadPasswords(&testPasswordPromptReader{passwords: []string{"testpassword"}})

	suite.is.NoErr(database.Setup())
	exists, err := afero.Exists(suite.fs, "/elsewhere/users.db")
	suite.is.NoErr(err)
	suite.is.True(exists)
}

func TestDatabaseSetupTestSuite(t *testing.T) {
	suite.Run(t, &DatabaseSetupTestSuite{})
}
